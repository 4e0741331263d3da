// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Document is a reflection document (SMD). Only the keys of Methods matter;
// the descriptors are passed through untouched.
type Document struct {
	Envelope string                     `json:"envelope,omitempty"`
	Methods  map[string]json.RawMessage `json:"methods"`
}

// NewDocument describes the named procedures with empty descriptors.
func NewDocument(envelope string, methods ...string) *Document {
	doc := &Document{
		Envelope: envelope,
		Methods:  make(map[string]json.RawMessage, len(methods)),
	}
	for _, m := range methods {
		doc.Methods[m] = json.RawMessage("{}")
	}
	return doc
}

// ParseDocument decodes a reflection document.
func ParseDocument(data []byte) (*Document, error) {
	return parseDocument(defaultCodec, data)
}

func parseDocument(codec Codec, data []byte) (*Document, error) {
	doc := new(Document)
	if err := codec.Decode(data, doc); err != nil {
		return nil, fmt.Errorf("decode reflection document: %w", err)
	}
	return doc, nil
}

// Names returns the procedure names, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Methods))
	for name := range d.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServeReflection answers GET requests with doc and hands every other
// request to next, so one URL serves both reflection and calls.
func ServeReflection(doc *Document, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		data, err := defaultCodec.Encode(doc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
}
