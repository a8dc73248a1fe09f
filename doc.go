// Package contenttypes decodes RFID tag identifiers (EPCs) into numeric
// keys and resolves them into display content, driven by externally
// supplied content-type definitions.
//
// Components:
//   - Batcher: time-windowed request coalescer with per-batcher
//     serialization and a bounded-staleness flush guarantee.
//   - Resolver: content-type dispatch over the definition table, plus
//     deferred (batched or single) content, virtual identifier redirection
//     and best-effort extras.
//   - pathsel: dotted-path selection and cyclic-safe pattern search over
//     untyped remote responses.
//   - memostore: per-identifier memo persistence (in-process or
//     provider-backed via Ristretto, BigCache or Redis) with negative
//     caching.
//
// Lifecycle:
//
//	defs, _ := contenttypes.LoadContentTypes(ctx, client, "/content-types", opts)
//	r, _ := contenttypes.New(contenttypes.Options{Client: client, Definitions: defs, ...})
//	defer r.Close(ctx)
//	res, err := r.Resolve(ctx, epc)
//
// A Resolver owns all session caches; Clear them (or Close the resolver) at
// session boundaries to bound memory and avoid stale cross-session data.
package contenttypes
