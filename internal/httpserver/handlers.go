package httpserver

import (
	"net/http"
	"strings"

	"photoshare/backend/internal/apperror"
	userdomain "photoshare/backend/internal/domain/user"
	"photoshare/backend/internal/dto"
	authusecase "photoshare/backend/internal/usecase/auth"
	cardusecase "photoshare/backend/internal/usecase/card"
	userusecase "photoshare/backend/internal/usecase/user"
)

var errRouteNotFound = apperror.New(apperror.NotFound, "Requested resource not found")

// authedHandler is a handler that runs only after the gate admitted the caller.
type authedHandler func(w http.ResponseWriter, r *http.Request, id authusecase.Identity)

func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	if s.metricsH != nil {
		s.router.Handle("GET /metrics", s.metricsH)
	}

	s.router.HandleFunc("POST /signup", s.handleSignup)
	s.router.HandleFunc("POST /signin", s.handleSignin)

	s.router.Handle("GET /users", s.protect(s.handleListUsers))
	s.router.Handle("GET /users/me", s.protect(s.handleGetMe))
	s.router.Handle("GET /users/{userId}", s.protect(s.handleGetUser))
	s.router.Handle("PATCH /users/me", s.protect(s.handleUpdateProfile))
	s.router.Handle("PATCH /users/me/avatar", s.protect(s.handleUpdateAvatar))

	s.router.Handle("GET /cards", s.protect(s.handleListCards))
	s.router.Handle("POST /cards", s.protect(s.handleCreateCard))
	s.router.Handle("DELETE /cards/{cardId}", s.protect(s.handleDeleteCard))
	s.router.Handle("PUT /cards/{cardId}/likes", s.protect(s.handleLikeCard))
	s.router.Handle("DELETE /cards/{cardId}/likes", s.protect(s.handleDislikeCard))

	// Unknown methods and paths under the protected prefixes still require a
	// token. The bare prefixes are registered too, otherwise the mux answers
	// them with a redirect to the subtree.
	s.router.Handle("/users", s.protect(s.handleNotFoundAuthed))
	s.router.Handle("/users/", s.protect(s.handleNotFoundAuthed))
	s.router.Handle("/cards", s.protect(s.handleNotFoundAuthed))
	s.router.Handle("/cards/", s.protect(s.handleNotFoundAuthed))
	s.router.HandleFunc("/", s.handleNotFound)
}

// protect is the authentication gate. It admits the request only with a
// valid bearer token and hands the verified identity to next.
func (s *Server) protect(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.Authenticate(extractBearerToken(r.Header.Get("Authorization")))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next(w, r, identity)
	})
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, errRouteNotFound)
}

func (s *Server) handleNotFoundAuthed(w http.ResponseWriter, r *http.Request, _ authusecase.Identity) {
	s.fail(w, r, errRouteNotFound)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload dto.SignupRequest
	if err := s.decode(w, r, &payload); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.auth.Register(r.Context(), authusecase.RegisterInput{
		Name:     payload.Name,
		About:    payload.About,
		Avatar:   payload.Avatar,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var payload dto.SigninRequest
	if err := s.decode(w, r, &payload); err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.auth.Login(r.Context(), userdomain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ authusecase.Identity) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	user, err := s.users.Me(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, _ authusecase.Identity) {
	user, err := s.users.Get(r.Context(), r.PathValue("userId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	var payload dto.UpdateProfileRequest
	if err := s.decode(w, r, &payload); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), id, userusecase.UpdateProfileInput{
		Name:  payload.Name,
		About: payload.About,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	var payload dto.UpdateAvatarRequest
	if err := s.decode(w, r, &payload); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.users.UpdateAvatar(r.Context(), id, payload.Avatar)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request, _ authusecase.Identity) {
	cards, err := s.cards.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	var payload dto.CreateCardRequest
	if err := s.decode(w, r, &payload); err != nil {
		s.fail(w, r, err)
		return
	}

	card, err := s.cards.Create(r.Context(), id, cardusecase.CreateInput{
		Name: payload.Name,
		Link: payload.Link,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	if err := s.cards.Delete(r.Context(), id, r.PathValue("cardId")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Card deleted"})
}

func (s *Server) handleLikeCard(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	card, err := s.cards.Like(r.Context(), id, r.PathValue("cardId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDislikeCard(w http.ResponseWriter, r *http.Request, id authusecase.Identity) {
	card, err := s.cards.Dislike(r.Context(), id, r.PathValue("cardId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
