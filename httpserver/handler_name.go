package httpserver

import "strings"

// ControllerAction splits a Go function name, as reported by
// runtime.FuncForPC or gin's HandlerName, into marginalia's controller and
// action components:
//
//	"example.com/blog/handler.(*Posts).Show-fm" -> "Posts", "Show"
//	"example.com/blog/handler.Posts.Show"       -> "Posts", "Show"
//	"example.com/blog/handler.listPosts"        -> "", "listPosts"
//	"example.com/blog/handler.New.func1"        -> "", "New"
//
// Closures report the function they are declared in.
func ControllerAction(funcName string) (controller, action string) {
	name := strings.TrimSuffix(funcName, "-fm")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return "", ""
	}

	method := strings.HasPrefix(parts[1], "(") ||
		(len(parts) == 3 && !isClosureName(parts[2]))
	if method && len(parts) >= 3 {
		return strings.Trim(parts[1], "(*)"), parts[2]
	}
	return "", parts[1]
}

// isClosureName reports whether s is a compiler generated closure name such
// as "func1".
func isClosureName(s string) bool {
	rest, ok := strings.CutPrefix(s, "func")
	if !ok || rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}
