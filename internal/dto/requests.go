// Package dto declares the request bodies accepted by the HTTP API. Struct
// tags drive both JSON decoding and the generated pre-check schemas.
package dto

// SignupRequest registers a new account. Omitted profile fields take defaults.
type SignupRequest struct {
	Name     string `json:"name,omitempty" jsonschema:"minLength=2,maxLength=30"`
	About    string `json:"about,omitempty" jsonschema:"minLength=2,maxLength=30"`
	Avatar   string `json:"avatar,omitempty" jsonschema:"format=uri,pattern=^https?://"`
	Email    string `json:"email" jsonschema:"required,format=email"`
	Password string `json:"password" jsonschema:"required,minLength=1"`
}

// SigninRequest exchanges credentials for a token.
type SigninRequest struct {
	Email    string `json:"email" jsonschema:"required,format=email"`
	Password string `json:"password" jsonschema:"required,minLength=1"`
}

// UpdateProfileRequest changes name and/or about.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" jsonschema:"minLength=2,maxLength=30"`
	About *string `json:"about,omitempty" jsonschema:"minLength=2,maxLength=30"`
}

// UpdateAvatarRequest replaces the avatar link.
type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" jsonschema:"required,format=uri,pattern=^https?://"`
}

// CreateCardRequest publishes a card.
type CreateCardRequest struct {
	Name string `json:"name" jsonschema:"required,minLength=2,maxLength=30"`
	Link string `json:"link" jsonschema:"required,format=uri,pattern=^https?://"`
}

// All lists every request body so validators can compile their schemas up front.
func All() []any {
	return []any{
		&SignupRequest{},
		&SigninRequest{},
		&UpdateProfileRequest{},
		&UpdateAvatarRequest{},
		&CreateCardRequest{},
	}
}

// TokenResponse is returned by signin.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
