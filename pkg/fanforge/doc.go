// Package fanforge assembles public fan pages out of reusable building
// blocks: a fandom owns one page, a page holds ordered typed sections, a
// section holds ordered typed items and a dynamic set of category filters
// that select subsets of those items.
//
// The package is transport-agnostic. Construct a Service over a Repository
// and wrap it however you like; the api subpackage provides an HTTP wrapper.
//
//	repo := memory.New()
//	svc, err := fanforge.New(fanforge.WithRepository(repo))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fandom, err := svc.CreateFandom(ctx, fanforge.CreateFandomRequest{
//	    CallerID: callerID,
//	    Name:     "Elves of Avaloria",
//	})
//
// Reads are public: GetComposition returns the fully assembled tree without
// any caller identity. Mutations require the caller to be the fandom's
// creator. Sections and items are soft-deleted; filters are hard-deleted.
// Sibling order is maintained by appending at the end and swapping adjacent
// order values on move, executed atomically through the repository.
package fanforge
