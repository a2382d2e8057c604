package middlewares

import (
	"net/http"

	"golang.org/x/text/language"
)

var Responses = struct {
	FailedValidations   *NewRM
	InternalServerError *NewRM
	PlayerNotFound      *NewRM
	AlreadyRegistered   *NewRM
	NameRequired        *NewRM
	NameTooLong         *NewRM
	InvalidEmail        *NewRM
	InvalidPassword     *NewRM
	AdminDisabled       *NewRM
	DeviceRequired      *NewRM
}{
	FailedValidations: &NewRM{
		Language.English: "Failed field validations",
		Language.Hindi:   "फ़ील्ड सत्यापन विफल रहा",
	},
	InternalServerError: &NewRM{
		Language.English: "Internal server error",
		Language.Hindi:   "सर्वर में समस्या",
	},
	PlayerNotFound: &NewRM{
		Language.English: "Player not found",
		Language.Hindi:   "खिलाड़ी नहीं मिला",
	},
	AlreadyRegistered: &NewRM{
		Language.English: "This device already has a ticket",
		Language.Hindi:   "इस डिवाइस के पास पहले से टिकट है",
	},
	NameRequired: &NewRM{
		Language.English: "Please enter your name",
		Language.Hindi:   "कृपया अपना नाम दर्ज करें",
	},
	NameTooLong: &NewRM{
		Language.English: "Name must be at most 50 characters",
		Language.Hindi:   "नाम अधिकतम 50 अक्षरों का हो सकता है",
	},
	InvalidEmail: &NewRM{
		Language.English: "Please enter a valid email address",
		Language.Hindi:   "कृपया मान्य ईमेल पता दर्ज करें",
	},
	InvalidPassword: &NewRM{
		Language.English: "Invalid password",
		Language.Hindi:   "गलत पासवर्ड",
	},
	AdminDisabled: &NewRM{
		Language.English: "Admin login is not configured",
		Language.Hindi:   "एडमिन लॉगिन कॉन्फ़िगर नहीं है",
	},
	DeviceRequired: &NewRM{
		Language.English: "Device not identified",
		Language.Hindi:   "डिवाइस की पहचान नहीं हुई",
	},
}

// NewRM maps a language code to a message.
type NewRM map[string]string

// In returns the message for lang, falling back to English.
func (m *NewRM) In(lang string) string {
	if msg, ok := (*m)[lang]; ok {
		return msg
	}
	return (*m)[Language.English]
}

var Language = struct {
	English string
	Hindi   string
}{
	English: "en",
	Hindi:   "hi",
}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Hindi,
})

// GetRequestLanguage picks the response language from Accept-Language.
func (r *ResponseWriter) GetRequestLanguage(req *http.Request) {
	r.Language = MatchLanguage(req.Header.Get("Accept-Language"))
}

func MatchLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Language.English
	}
	tag, _, _ := languageMatcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == Language.Hindi {
		return Language.Hindi
	}
	return Language.English
}
