// Package http provides request and response helpers for JSON APIs.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var in struct {
//	    Value string `json:"value" validate:"required,max=255"`
//	}
//	if err := req.BindAndValidate(&in); err != nil { ... }
//
//	days  := req.QueryInt("days", 30)
//	key   := req.RouteParam("key")
//	token := req.BearerToken()
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(data)             // 200 {"data": ...}
//	res.Created(data)             // 201 {"data": ...}
//	res.NoContent()               // 204
//	res.NotFound()                // 404 {"message": "Not found."}
//	res.ValidationError(errs)     // 422 {"message": ..., "errors": {"field": ["msg"]}}
//	res.Fail(err)                 // 422, 400 or 500 depending on err
//
// # Validation
//
// Validate runs go-playground/validator over `validate` tags and reports
// failures keyed by json field name.
package http
