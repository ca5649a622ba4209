package model

type Operation struct {
	ID          string
	Method      Method
	Path        string
	Summary     string
	Description string
	Tags        []string
	// Group is the key operations are bundled by into API artifacts.
	Group       string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
	Deprecated  bool
	Security    []SecurityRequirement
	// Webhook marks operations received by the API owner rather than served.
	Webhook bool
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
	LocationBody   ParameterLocation = "body"
)

type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Deprecated  bool
	Style       string
	Explode     bool
	Schema      *Schema
}

type RequestBody struct {
	Description string
	Required    bool
	Content     []MediaTypeContent
}

type MediaTypeContent struct {
	MediaType string
	Schema    *Schema
}

type Response struct {
	StatusCode  string
	Description string
	Content     []MediaTypeContent
	Headers     []Header
}

type Header struct {
	Name        string
	Description string
	Required    bool
	Schema      *Schema
}

type SecurityRequirement struct {
	Name   string
	Scopes []string
}

// Slots lists the schema positions of an operation with their structural role,
// in parameter, request body, response order.
func (o *Operation) Slots() []OperationSlot {
	var slots []OperationSlot
	for i := range o.Parameters {
		if o.Parameters[i].Schema != nil {
			slots = append(slots, OperationSlot{Ptr: &o.Parameters[i].Schema, Role: "parameter", Name: o.Parameters[i].Name})
		}
	}
	if o.RequestBody != nil {
		for i := range o.RequestBody.Content {
			if o.RequestBody.Content[i].Schema != nil {
				slots = append(slots, OperationSlot{Ptr: &o.RequestBody.Content[i].Schema, Role: "request body", Name: o.RequestBody.Content[i].MediaType})
			}
		}
	}
	for i := range o.Responses {
		r := &o.Responses[i]
		for j := range r.Content {
			if r.Content[j].Schema != nil {
				slots = append(slots, OperationSlot{Ptr: &r.Content[j].Schema, Role: "response", Name: r.StatusCode, MediaType: r.Content[j].MediaType})
			}
		}
		for j := range r.Headers {
			if r.Headers[j].Schema != nil {
				slots = append(slots, OperationSlot{Ptr: &r.Headers[j].Schema, Role: "header", Name: r.StatusCode + " " + r.Headers[j].Name})
			}
		}
	}
	return slots
}

type OperationSlot struct {
	Ptr       **Schema
	Role      string
	Name      string
	MediaType string
}

// SuccessResponse returns the first 2xx response, falling back to "default".
func (o *Operation) SuccessResponse() *Response {
	var fallback *Response
	for i := range o.Responses {
		code := o.Responses[i].StatusCode
		if len(code) == 3 && code[0] == '2' {
			return &o.Responses[i]
		}
		if code == "2XX" && fallback == nil {
			fallback = &o.Responses[i]
		}
		if code == "default" && fallback == nil {
			fallback = &o.Responses[i]
		}
	}
	return fallback
}

func (o *Operation) Clone() Operation {
	c := *o
	c.Tags = append([]string(nil), o.Tags...)
	c.Parameters = make([]Parameter, len(o.Parameters))
	for i, p := range o.Parameters {
		p.Schema = p.Schema.Clone()
		c.Parameters[i] = p
	}
	if o.RequestBody != nil {
		rb := *o.RequestBody
		rb.Content = cloneContent(o.RequestBody.Content)
		c.RequestBody = &rb
	}
	c.Responses = make([]Response, len(o.Responses))
	for i, r := range o.Responses {
		r.Content = cloneContent(r.Content)
		headers := make([]Header, len(r.Headers))
		for j, h := range r.Headers {
			h.Schema = h.Schema.Clone()
			headers[j] = h
		}
		r.Headers = headers
		c.Responses[i] = r
	}
	c.Security = append([]SecurityRequirement(nil), o.Security...)
	return c
}

func cloneContent(content []MediaTypeContent) []MediaTypeContent {
	out := make([]MediaTypeContent, len(content))
	for i, mt := range content {
		out[i] = MediaTypeContent{MediaType: mt.MediaType, Schema: mt.Schema.Clone()}
	}
	return out
}
