// Package deed defines deed descriptors and the fluent builders that
// produce them.
//
// A deed is a named operation a store can invoke. There are three kinds:
//
//   - Action: runs a local function and ships its returned delta to cargo
//   - Request: assembles and executes a network request, then hands the
//     decoded response to a final action
//   - Stub: an arbitrary Invocation installed verbatim (test doubles)
//
// Builders are configured during a single-goroutine construction phase:
//
//	getUser, err := deed.NewRequest("getUser").
//	    Hits(func(ex deed.FetchExtras, args ...any) string {
//	        return fmt.Sprintf("/users/%v", args[0])
//	    }).
//	    ThenDoes(func(ctx context.Context, ex deed.ActionExtras, args ...any) (cargo.Cargo, error) {
//	        return cargo.Cargo{"user": args[0]}, nil
//	    }).
//	    Build()
//
// Setters validate their argument immediately. The first invalid value is
// kept as the builder's error (see Err) and returned by Build, so a bad
// configuration never reaches invocation time.
package deed
