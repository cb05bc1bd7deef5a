package ui

import "time"

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 3 * time.Second

// KeyEscape is the key value that closes the cart modal.
const KeyEscape = "Escape"

// Toast is a transient notification.
type Toast struct {
	Message string    `json:"message"`
	ShownAt time.Time `json:"shown_at"`
}

// ShellState is a point-in-time copy of the shell flags.
type ShellState struct {
	CartOpen      bool   `json:"cart_open"`
	MobileNavOpen bool   `json:"mobile_nav_open"`
	ToastMessage  string `json:"toast_message,omitempty"`
	ToastVisible  bool   `json:"toast_visible"`
}

// Shell holds the presentation flags of the page: the cart modal, the mobile
// navigation and the toast. It is not safe for concurrent use; the storefront
// serializes access to it.
type Shell struct {
	cartOpen      bool
	mobileNavOpen bool
	toast         *Toast
	toastDuration time.Duration
	now           func() time.Time
}

// Option configures a Shell.
type Option func(*Shell)

// WithClock sets the clock toast visibility is evaluated against.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) { s.now = now }
}

// WithToastDuration overrides DefaultToastDuration.
func WithToastDuration(d time.Duration) Option {
	return func(s *Shell) {
		if d > 0 {
			s.toastDuration = d
		}
	}
}

// NewShell returns a shell with everything closed and no toast.
func NewShell(opts ...Option) *Shell {
	s := &Shell{toastDuration: DefaultToastDuration, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CartOpen reports whether the cart modal is shown.
func (s *Shell) CartOpen() bool { return s.cartOpen }

// MobileNavOpen reports whether the mobile navigation menu is expanded.
func (s *Shell) MobileNavOpen() bool { return s.mobileNavOpen }

// OpenCart shows the cart modal.
func (s *Shell) OpenCart() { s.cartOpen = true }

// CloseCart hides the cart modal.
func (s *Shell) CloseCart() { s.cartOpen = false }

// OverlayClick handles a click on the modal backdrop.
func (s *Shell) OverlayClick() {
	s.cartOpen = false
}

// KeyDown handles a key press. Only Escape while the modal is open has an
// effect; it reports whether the modal was closed.
func (s *Shell) KeyDown(key string) bool {
	if key != KeyEscape || !s.cartOpen {
		return false
	}
	s.cartOpen = false
	return true
}

// ToggleNav expands or collapses the mobile navigation menu.
func (s *Shell) ToggleNav() {
	s.mobileNavOpen = !s.mobileNavOpen
}

// NavLink handles a click on a navigation link, which closes the mobile nav.
func (s *Shell) NavLink() {
	s.mobileNavOpen = false
}

// ShowToast replaces any current toast and restarts the hide timer.
func (s *Shell) ShowToast(message string) {
	s.toast = &Toast{Message: message, ShownAt: s.now()}
}

// Toast returns the current toast if it is still visible.
func (s *Shell) Toast() (Toast, bool) {
	if s.toast == nil {
		return Toast{}, false
	}
	if s.now().Sub(s.toast.ShownAt) >= s.toastDuration {
		return *s.toast, false
	}
	return *s.toast, true
}

// ToastDuration returns the configured visibility window.
func (s *Shell) ToastDuration() time.Duration {
	return s.toastDuration
}

// State returns a copy of the flags with toast visibility resolved now.
func (s *Shell) State() ShellState {
	st := ShellState{CartOpen: s.cartOpen, MobileNavOpen: s.mobileNavOpen}
	if t, ok := s.Toast(); ok {
		st.ToastMessage = t.Message
		st.ToastVisible = true
	}
	return st
}
