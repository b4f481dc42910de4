// Package posts provides a client for a blog Posts REST API exposing
// GET/POST/PUT/DELETE on /posts and /posts/{id}. The Client type wraps the
// five calls the post client UI needs (List, Get, Create, Update, Delete) on
// top of a Backend, which is either the HTTP implementation bound to a base
// URL or an in-memory replacement such as the one in package mock.
//
// Create and Update send a Payload built by NewPayload, which applies the
// client-side defaults: an empty author becomes "Unknown author" and an empty
// date is left out of the request body instead of being sent as "".
package posts
