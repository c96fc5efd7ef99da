package adapt

import (
	"strings"

	"jsadapt/internal/config"
)

// AddNamespace prefixes the package of a request with the provider's name:
// "pkg/x" becomes "provider$pkg/x" and "@scope/pkg" becomes
// "@provider$scope/pkg".
func AddNamespace(request, provider string) string {
	if strings.HasPrefix(request, "@") {
		return "@" + provider + "$" + request[1:]
	}
	return provider + "$" + request
}

// RemoveNamespace undoes AddNamespace. Requests without a namespace are
// returned unchanged.
func RemoveNamespace(request string) string {
	scoped := strings.HasPrefix(request, "@")
	rest := request
	if scoped {
		rest = request[1:]
	}
	pkgEnd := strings.IndexByte(rest, '/')
	if pkgEnd < 0 {
		pkgEnd = len(rest)
	}
	i := strings.IndexByte(rest[:pkgEnd], '$')
	if i < 0 {
		return request
	}
	if scoped {
		return "@" + rest[i+1:]
	}
	return rest[i+1:]
}

// PackageName returns the package part of a request ("@scope/pkg/x" gives
// "@scope/pkg") or "" for relative and absolute requests.
func PackageName(request string) string {
	if request == "" || strings.HasPrefix(request, ".") || strings.HasPrefix(request, "/") {
		return ""
	}
	parts := strings.SplitN(request, "/", 3)
	if strings.HasPrefix(request, "@") {
		if len(parts) < 2 {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// Resolver maps a request to the module id the loader is asked for.
type Resolver func(request string) string

// ImportsResolver namespaces requests for packages provided by other
// projects and leaves the rest untouched.
func ImportsResolver(imports map[string]config.ImportSpec) Resolver {
	return func(request string) string {
		spec, ok := imports[PackageName(request)]
		if !ok {
			return request
		}
		return AddNamespace(request, spec.Provider)
	}
}
