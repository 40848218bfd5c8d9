/*
Copyright 2016 The GoStor Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package router

import (
	"net/http"

	"github.com/gostor/scsitarg/pkg/apiserver/httputils"
)

// Router is a set of routes the API server registers together.
type Router interface {
	Routes() []Route
}

// Route is one method and path pair with its handler.
type Route interface {
	Handler() httputils.APIFunc
	Method() string
	// Path is a gorilla/mux template, without the version prefix.
	Path() string
}

type route struct {
	method  string
	path    string
	handler httputils.APIFunc
}

func (r route) Handler() httputils.APIFunc { return r.handler }
func (r route) Method() string             { return r.method }
func (r route) Path() string               { return r.path }

// NewRoute returns a route for any http method.
func NewRoute(method, path string, handler httputils.APIFunc) Route {
	return route{method: method, path: path, handler: handler}
}

// NewGetRoute returns a GET route.
func NewGetRoute(path string, handler httputils.APIFunc) Route {
	return NewRoute(http.MethodGet, path, handler)
}

// NewPostRoute returns a POST route.
func NewPostRoute(path string, handler httputils.APIFunc) Route {
	return NewRoute(http.MethodPost, path, handler)
}

// NewDeleteRoute returns a DELETE route.
func NewDeleteRoute(path string, handler httputils.APIFunc) Route {
	return NewRoute(http.MethodDelete, path, handler)
}

// Group collects routes sharing a path prefix.
type Group struct {
	prefix string
	routes []Route
}

// NewGroup starts a group whose routes all live under prefix.
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Get adds a GET route below the prefix.
func (g *Group) Get(path string, handler httputils.APIFunc) *Group {
	return g.add(http.MethodGet, path, handler)
}

// Post adds a POST route below the prefix.
func (g *Group) Post(path string, handler httputils.APIFunc) *Group {
	return g.add(http.MethodPost, path, handler)
}

// Delete adds a DELETE route below the prefix.
func (g *Group) Delete(path string, handler httputils.APIFunc) *Group {
	return g.add(http.MethodDelete, path, handler)
}

func (g *Group) add(method, path string, handler httputils.APIFunc) *Group {
	g.routes = append(g.routes, NewRoute(method, g.prefix+path, handler))
	return g
}

// Routes returns the routes added so far.
func (g *Group) Routes() []Route {
	return g.routes
}
