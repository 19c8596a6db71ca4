package navigation

import (
	"sort"
	"strings"
)

// Маршруты мини-приложения.
const (
	RouteRoot                 = "/"
	RouteLogin                = "/login"
	RouteRegistrationRequired = "/registration-required"
	RouteApp                  = "/app"
	RouteProfile              = "/app/profile"
	RouteSummaries            = "/app/summaries"
	RouteBreakingNews         = "/app/breaking-news"

	// LandingRoute — куда попадает пользователь после входа.
	LandingRoute = RouteSummaries
)

// Route — запись таблицы маршрутов.
type Route struct {
	Path         string
	RequiresAuth bool
	Redirect     string
}

var routes = []Route{
	{Path: RouteRoot, Redirect: LandingRoute},
	{Path: RouteLogin},
	{Path: RouteRegistrationRequired},
	{Path: RouteApp, RequiresAuth: true},
	{Path: RouteProfile, RequiresAuth: true},
	{Path: RouteSummaries, RequiresAuth: true},
	{Path: RouteBreakingNews, RequiresAuth: true},
}

// byPrefixLen — маршруты от самого длинного пути к самому короткому.
var byPrefixLen = func() []Route {
	out := append([]Route(nil), routes...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Path) > len(out[j].Path) })
	return out
}()

// Routes возвращает копию таблицы маршрутов.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup находит маршрут по точному пути или по самому длинному зарегистрированному префиксу.
func Lookup(path string) Route {
	path = normalize(path)
	for _, r := range byPrefixLen {
		if path == r.Path {
			return r
		}
	}
	for _, r := range byPrefixLen {
		if r.Path == RouteRoot {
			continue
		}
		if strings.HasPrefix(path, r.Path+"/") {
			return Route{Path: path, RequiresAuth: r.RequiresAuth}
		}
	}
	return Route{Path: path}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = RouteRoot
		}
	}
	return path
}
