package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meetandfeat/web/internal/xerrors"
	"github.com/meetandfeat/web/server/platform"
)

const flashCookie = "mnf_flash"

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is a one-shot message shown on the next rendered page.
type Toast struct {
	Kind    ToastKind
	Title   string
	Message string
}

func successToast(title string, message string) Toast {
	return Toast{Kind: ToastSuccess, Title: title, Message: message}
}

// addToast queues toast for the page the browser is redirected to.
func (h *handler) addToast(w http.ResponseWriter, r *http.Request, toast Toast) {
	toasts := h.readToasts(r)
	toasts = append(toasts, toast)

	encoded, err := h.Cookies.Encode(flashCookie, toasts)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode toast", slog.Any("err", err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cfg.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) readToasts(r *http.Request) []Toast {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	var toasts []Toast
	if err = h.Cookies.Decode(flashCookie, cookie.Value, &toasts); err != nil {
		slog.DebugContext(r.Context(), "Dropping invalid toast cookie", slog.Any("err", err))
		return nil
	}
	return toasts
}

// takeToasts returns the queued toasts and clears them.
func (h *handler) takeToasts(w http.ResponseWriter, r *http.Request) []Toast {
	toasts := h.readToasts(r)
	if _, err := r.Cookie(flashCookie); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.Cfg.Server.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return toasts
}

// errorToast applies the error policy to a failed action. Capacity errors show no toast,
// the refreshed card says the event is full.
func errorToast(title string, err error) (Toast, bool) {
	switch platform.KindOf(err) {
	case platform.KindCapacity:
		return Toast{}, false
	case platform.KindNetwork:
		return Toast{
			Kind:    ToastError,
			Title:   title,
			Message: "The service is unavailable right now, please try again later.",
		}, true
	case platform.KindNotFound:
		return Toast{
			Kind:    ToastInfo,
			Title:   title,
			Message: "It is already gone.",
		}, true
	case platform.KindAuthorization:
		return Toast{
			Kind:    ToastError,
			Title:   title,
			Message: "You are not allowed to do that.",
		}, true
	}
	return Toast{
		Kind:    ToastError,
		Title:   title,
		Message: errorMessage(err),
	}, true
}

func errorMessage(err error) string {
	var messages []string
	for _, e := range xerrors.Unwrap(err) {
		messages = append(messages, platform.Message(e))
	}
	return strings.Join(messages, "\n")
}
