package shared

import "sync"

// MessageID identifies a user-facing message in the catalog.
type MessageID string

const (
	MsgEmptyQuery          MessageID = "empty_query"
	MsgEmptyBookID         MessageID = "empty_book_id"
	MsgSearchFailed        MessageID = "search_failed"
	MsgLookupFailed        MessageID = "lookup_failed"
	MsgInvalidResponse     MessageID = "invalid_response"
	MsgMissingFields       MessageID = "missing_fields"
	MsgPasswordTooShort    MessageID = "password_too_short"
	MsgInvalidEmail        MessageID = "invalid_email"
	MsgEmailNotConfirmed   MessageID = "email_not_confirmed"
	MsgAlreadyRegistered   MessageID = "already_registered"
	MsgInvalidCredentials  MessageID = "invalid_credentials"
	MsgTooManyRequests     MessageID = "too_many_requests"
	MsgNetwork             MessageID = "network"
	MsgSessionExpired      MessageID = "session_expired"
	MsgAuthServer          MessageID = "auth_server"
	MsgProviderDisabled    MessageID = "provider_disabled"
	MsgAuthFailed          MessageID = "auth_failed"
	MsgSignUpFailed        MessageID = "signup_failed"
	MsgSignInFailed        MessageID = "signin_failed"
	MsgSignUpSuccess       MessageID = "signup_success"
	MsgDuplicateEntry      MessageID = "duplicate_entry"
	MsgInvalidListName     MessageID = "invalid_list_name"
	MsgListUpdateFailed    MessageID = "list_update_failed"
	MsgAddedToList         MessageID = "added_to_list"
	MsgMovedToList         MessageID = "moved_to_list"
	MsgStaleMove           MessageID = "stale_move"
	MsgNotConnected        MessageID = "not_connected"
	MsgNotAuthenticated    MessageID = "not_authenticated"
	MsgOAuthStateMismatch  MessageID = "oauth_state_mismatch"
	MsgOAuthCallbackFailed MessageID = "oauth_callback_failed"
)

var catalogs = map[string]map[MessageID]string{
	"en": {
		MsgEmptyQuery:          "Please enter a search term.",
		MsgEmptyBookID:         "A book identifier is required.",
		MsgSearchFailed:        "Search failed",
		MsgLookupFailed:        "Could not load book details",
		MsgInvalidResponse:     "Invalid response from the server.",
		MsgMissingFields:       "Please fill in all fields.",
		MsgPasswordTooShort:    "Password must be at least 6 characters.",
		MsgInvalidEmail:        "Please enter a valid email address.",
		MsgEmailNotConfirmed:   "Please check your email to activate your account.",
		MsgAlreadyRegistered:   "This email is already registered. Please sign in.",
		MsgInvalidCredentials:  "Invalid credentials. Please check your email and password.",
		MsgTooManyRequests:     "Too many attempts. Please wait a few minutes before trying again.",
		MsgNetwork:             "Connection error. Please check your internet connection.",
		MsgSessionExpired:      "Your session has expired. Please sign in again.",
		MsgAuthServer:          "The authentication server failed. Please try again later.",
		MsgProviderDisabled:    "This sign-in provider is not enabled. Please contact the administrator.",
		MsgAuthFailed:          "Authentication failed. Please try again.",
		MsgSignUpFailed:        "Could not create the account. Please try again.",
		MsgSignInFailed:        "Could not sign in. Please try again.",
		MsgSignUpSuccess:       "Sign-up successful! Please check your email to activate your account.",
		MsgDuplicateEntry:      "This book is already in one of your lists.",
		MsgInvalidListName:     "Invalid list name.",
		MsgListUpdateFailed:    "Could not update your list.",
		MsgAddedToList:         "Book added to your list.",
		MsgMovedToList:         "Book moved.",
		MsgStaleMove:           "The book is no longer in that list. Reload your collections and try again.",
		MsgNotConnected:        "Not connected: configure the Supabase URL and key to save books.",
		MsgNotAuthenticated:    "Please sign in first.",
		MsgOAuthStateMismatch:  "The sign-in callback did not match this request.",
		MsgOAuthCallbackFailed: "The sign-in provider did not return an authorization code.",
	},
	"es": {
		MsgEmptyQuery:          "Por favor ingresa un término de búsqueda.",
		MsgEmptyBookID:         "Se requiere el identificador del libro.",
		MsgSearchFailed:        "Error en la búsqueda",
		MsgLookupFailed:        "No se pudieron cargar los detalles del libro",
		MsgInvalidResponse:     "Respuesta inválida del servidor.",
		MsgMissingFields:       "Por favor, completa todos los campos.",
		MsgPasswordTooShort:    "La contraseña debe tener al menos 6 caracteres.",
		MsgInvalidEmail:        "Por favor, ingresa un correo electrónico válido.",
		MsgEmailNotConfirmed:   "Por favor, verifica tu correo electrónico para activar tu cuenta.",
		MsgAlreadyRegistered:   "Este correo electrónico ya está registrado. Por favor, inicia sesión.",
		MsgInvalidCredentials:  "Credenciales inválidas. Por favor, verifica tu correo y contraseña.",
		MsgTooManyRequests:     "Demasiados intentos. Por favor, espera unos minutos antes de intentar nuevamente.",
		MsgNetwork:             "Error de conexión. Por favor, verifica tu conexión a internet.",
		MsgSessionExpired:      "La sesión ha expirado. Por favor, inicia sesión nuevamente.",
		MsgAuthServer:          "Error en el servidor de autenticación. Por favor, intenta más tarde.",
		MsgProviderDisabled:    "El inicio de sesión con este proveedor no está habilitado. Por favor, contacta al administrador.",
		MsgAuthFailed:          "Error durante la autenticación. Por favor, intenta nuevamente.",
		MsgSignUpFailed:        "No se pudo crear la cuenta. Por favor, intenta nuevamente.",
		MsgSignInFailed:        "No se pudo iniciar sesión. Por favor, intenta nuevamente.",
		MsgSignUpSuccess:       "¡Registro exitoso! Por favor verifica tu correo electrónico para activar tu cuenta.",
		MsgDuplicateEntry:      "Este libro ya está en tu lista.",
		MsgInvalidListName:     "Nombre de lista inválido.",
		MsgListUpdateFailed:    "No se pudo actualizar tu lista.",
		MsgAddedToList:         "¡Libro agregado a tu lista exitosamente!",
		MsgMovedToList:         "Libro movido.",
		MsgStaleMove:           "El libro ya no está en esa lista. Recarga tus colecciones e intenta de nuevo.",
		MsgNotConnected:        "Sin conexión: configura la URL y la clave de Supabase para guardar libros.",
		MsgNotAuthenticated:    "Inicia sesión primero.",
		MsgOAuthStateMismatch:  "La respuesta del inicio de sesión no coincide con esta solicitud.",
		MsgOAuthCallbackFailed: "El proveedor no devolvió un código de autorización.",
	},
}

var (
	localeMu sync.RWMutex
	locale   = "en"
)

// SetLocale selects the message catalog. Unknown locales leave the current one in place.
func SetLocale(l string) bool {
	if _, ok := catalogs[l]; !ok {
		return false
	}
	localeMu.Lock()
	locale = l
	localeMu.Unlock()
	return true
}

// Locale returns the active catalog name.
func Locale() string {
	localeMu.RLock()
	defer localeMu.RUnlock()
	return locale
}

// Message returns the localized text for id, falling back to English and then to the raw id.
func Message(id MessageID) string {
	localeMu.RLock()
	cat := catalogs[locale]
	localeMu.RUnlock()

	if msg, ok := cat[id]; ok {
		return msg
	}
	if msg, ok := catalogs["en"][id]; ok {
		return msg
	}
	return string(id)
}
