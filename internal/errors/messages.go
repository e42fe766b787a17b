package errors

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{
	language.Spanish, // first entry is the fallback
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var messages = map[string][2]string{
	CodeUnauthorized:        {"Necesitas iniciar sesión.", "Authentication required."},
	CodeForbidden:           {"No tienes permiso para esta acción.", "Permission denied."},
	CodeNotFound:            {"No encontramos lo que buscas.", "Resource not found."},
	CodeValidationError:     {"Revisa los datos enviados.", "Request validation failed."},
	CodeBadRequest:          {"Solicitud no válida.", "Invalid request."},
	CodeServerError:         {"Ha ocurrido un error inesperado.", "An unexpected error occurred."},
	CodeTooManyRequests:     {"Demasiadas solicitudes, inténtalo en un momento.", "Too many requests, try again shortly."},
	CodeQuotaExceeded:       {"Has alcanzado el límite diario de generaciones.", "You have reached today's generation limit."},
	CodeInsufficientBalance: {"No te quedan tokens disponibles.", "You have no tokens left."},
	CodeChargeFailed:        {"Tu plan se generó, pero no quedaban tokens para cobrarlo.", "Your plan was generated but your token balance ran out before it could be charged."},
	CodeAIParseError:        {"La IA devolvió una respuesta no válida. Inténtalo de nuevo.", "The AI returned an invalid response. Please try again."},
	CodeShapeMismatch:       {"La IA no respetó el número de días solicitado. Inténtalo de nuevo.", "The AI did not return the requested number of days. Please try again."},
	CodeUpstreamUnavailable: {"El servicio de IA no está disponible ahora mismo.", "The AI service is temporarily unavailable."},
	CodeInvalidSignature:    {"Firma no válida.", "Invalid signature."},
	CodeBillingUnavailable:  {"La facturación no está disponible ahora mismo.", "Billing is temporarily unavailable."},
	CodePayloadTooLarge:     {"La solicitud es demasiado grande.", "Request body too large."},
}

// picks the best supported language for the request's Accept-Language header
func languageIndex(c *gin.Context) int {
	if c == nil || c.Request == nil {
		return 0
	}

	tags, _, err := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return 0
	}

	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return 0
	}

	return idx
}

// returns the localized message for code, or fallback when the code has no entry
func Localize(c *gin.Context, code, fallback string) string {
	entry, ok := messages[code]
	if !ok {
		return fallback
	}

	return entry[languageIndex(c)]
}
