// Package comment builds the trailing SQL comment that carries request and
// application metadata, and splices it into outgoing statements.
//
// A statement such as
//
//	select id from posts
//
// leaves the application as
//
//	select id from posts /*app=blog,controller=posts,action=index*/
//
// so that it can be traced back to its origin from database logs and
// slow-query logs.
//
// # Building blocks
//
//   - Registry: the mutable, ordered set of components for one request or job
//   - Format: renders components as /*name=value,...*/ with escaped values
//   - Annotate: splices a rendered comment into a statement
//   - Commenter: combines static components, the Registry stored in a
//     context.Context and optional trace context for driver wrappers
//
// # Request Scope
//
// A Registry belongs to exactly one logical scope. Create one per request and
// carry it in the request context:
//
//	reg := comment.NewRegistry(comment.Component{Name: "controller", Value: "posts"})
//	ctx = comment.NewContext(ctx, reg)
//
//	reg.Set("action", "index")
//	rows, err := db.QueryContext(ctx, "select id from posts")
//
// Sharing one Registry between concurrent requests is a misuse: components set
// by one request would show up on statements of the other.
//
// # Escaping
//
// Values are percent-escaped so that they can never terminate the comment:
//
//	'%' -> %25   '*' -> %2A   ',' -> %2C   '?' -> %3F
//
// and a '/' ending a value becomes %2F. Names are written verbatim and must be
// plain identifiers ([a-zA-Z0-9_]+); anything else produces undefined output.
package comment
