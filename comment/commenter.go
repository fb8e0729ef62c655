package comment

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

// Well-known component names.
const (
	ApplicationKey = "app"
	ControllerKey  = "controller"
	ActionKey      = "action"
	RouteKey       = "route"
	MethodKey      = "method"
	RequestIDKey   = "request_id"
	JobKey         = "job"
	LineKey        = "line"
	HostnameKey    = "hostname"
	PIDKey         = "pid"
	DBDriverKey    = "db_driver"
)

const pkgPath = "github.com/kroma-labs/marginalia-go/comment"

// defaultCallerSkip lists packages that are never reported as the caller of a
// statement.
var defaultCallerSkip = []string{
	"runtime",
	"database/sql",
	"github.com/jmoiron/sqlx",
	"github.com/kroma-labs/marginalia-go/sql",
	"github.com/kroma-labs/marginalia-go/sqlx",
}

// Commenter renders the annotation of a statement executed under a context.
//
// The rendered set is, in order: static components given as options, the
// components of the Registry found in the context (overriding static ones of
// the same name), the caller line and the propagated trace context.
//
// A Commenter is immutable and safe for concurrent use.
type Commenter struct {
	static     Components
	propagator propagation.TextMapPropagator
	caller     bool
	callerSkip []string
}

// Option configures a Commenter.
type Option func(*Commenter)

// NewCommenter returns a Commenter configured with opts.
//
// Example:
//
//	c := comment.NewCommenter(
//	    comment.WithApplication("blog"),
//	    comment.WithTraceContext(),
//	)
//	query = c.Annotate(ctx, query)
func NewCommenter(opts ...Option) *Commenter {
	c := &Commenter{
		callerSkip: append([]string(nil), defaultCallerSkip...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithComponent adds a static component rendered on every statement.
func WithComponent(name, value string) Option {
	return func(c *Commenter) {
		c.static = c.static.Merge(Components{{Name: name, Value: value}})
	}
}

// WithApplication sets the "app" component.
func WithApplication(name string) Option {
	return WithComponent(ApplicationKey, name)
}

// WithDBDriver sets the "db_driver" component.
func WithDBDriver(name string) Option {
	return WithComponent(DBDriverKey, name)
}

// WithHostname sets the "hostname" component to the local host name.
// Nothing is added when the host name cannot be determined.
func WithHostname() Option {
	return func(c *Commenter) {
		if h, err := os.Hostname(); err == nil && h != "" {
			WithComponent(HostnameKey, h)(c)
		}
	}
}

// WithPID sets the "pid" component to the current process id.
func WithPID() Option {
	return WithComponent(PIDKey, strconv.Itoa(os.Getpid()))
}

// WithTraceContext adds the W3C "traceparent" and "tracestate" of the span
// active in the context.
func WithTraceContext() Option {
	return WithPropagator(propagation.TraceContext{})
}

// WithPropagator adds the fields p injects for the context as components.
// Fields p leaves empty are skipped.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Commenter) {
		c.propagator = p
	}
}

// WithCaller adds a "line" component naming the first stack frame outside
// database/sql, sqlx and this module's wrappers, e.g. "store/posts.go:42".
// skip names additional package paths to step over, such as a repository
// layer shared by all queries.
func WithCaller(skip ...string) Option {
	return func(c *Commenter) {
		c.caller = true
		c.callerSkip = append(c.callerSkip, skip...)
	}
}

// Components returns the components for a statement executed under ctx.
func (c *Commenter) Components(ctx context.Context) Components {
	out := append(Components(nil), c.static...)
	if r, ok := FromContext(ctx); ok {
		out = out.Merge(r.Snapshot())
	}

	var extra Components
	if c.caller {
		if line := callerLine(c.callerSkip); line != "" {
			extra = append(extra, Component{Name: LineKey, Value: line})
		}
	}
	if c.propagator != nil && ctx != nil {
		carrier := propagation.MapCarrier{}
		c.propagator.Inject(ctx, carrier)
		for _, field := range c.propagator.Fields() {
			if v := carrier.Get(field); v != "" {
				extra = append(extra, Component{Name: field, Value: v})
			}
		}
	}
	if len(extra) > 0 {
		out = out.Merge(extra)
	}
	return out
}

// Comment renders the components for ctx with Format.
func (c *Commenter) Comment(ctx context.Context) string {
	return Format(c.Components(ctx))
}

// Annotate splices the comment for ctx into query. A query that already ends
// with the same comment is returned unchanged, so a statement passing through
// two annotating layers is annotated once.
func (c *Commenter) Annotate(ctx context.Context, query string) string {
	cm := c.Comment(ctx)
	if cm == "" || Annotated(query, cm) {
		return query
	}
	return Annotate(query, cm)
}

// callerLine returns "dir/file.go:line" of the first frame not belonging to
// the Commenter or to a package listed in skip.
func callerLine(skip []string) string {
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !skipFrame(frame.Function, skip) {
			return shortFile(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func skipFrame(function string, skip []string) bool {
	if strings.HasPrefix(function, pkgPath+".(*Commenter).") ||
		strings.HasPrefix(function, pkgPath+".callerLine") {
		return true
	}
	pkg := funcPackage(function)
	for _, s := range skip {
		if pkg == s {
			return true
		}
	}
	return false
}

// funcPackage returns the import path part of a fully qualified function
// name such as "github.com/a/b.(*T).M".
func funcPackage(function string) string {
	slash := strings.LastIndex(function, "/")
	dot := strings.Index(function[slash+1:], ".")
	if dot < 0 {
		return function
	}
	return function[:slash+1+dot]
}

func shortFile(file string) string {
	dir, base := filepath.Split(file)
	dir = filepath.Base(filepath.Clean(dir))
	if dir == "." || dir == string(filepath.Separator) {
		return base
	}
	return dir + "/" + base
}
