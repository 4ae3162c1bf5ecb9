package i18n

// DefaultMessages returns built-in translations for all supported locales.
func DefaultMessages() map[Locale]map[string]string {
	return map[Locale]map[string]string{
		LocaleEn: enMessages,
		LocaleHi: hiMessages,
	}
}

var enMessages = map[string]string{
	"error.not_found":         "The requested resource was not found",
	"error.unauthorized":      "Authentication is required",
	"error.forbidden":         "You are not allowed to do this",
	"error.bad_request":       "Invalid request",
	"error.internal":          "Something went wrong on our side",
	"error.unavailable":       "Service temporarily unavailable, please retry",
	"error.too_many_requests": "Too many requests, please slow down",
	"error.validation":        "Some fields are missing or invalid",

	"chat.message_deleted":      "Message deleted",
	"chat.conversation_deleted": "Conversation deleted",
	"chat.marked_read":          "Messages marked as read",
	"chat.blocked":              "User blocked",
	"chat.unblocked":            "User unblocked",
	"push.new_message_title":    "New message from %s",
	"push.attachment_body":      "Sent you an attachment",
}

var hiMessages = map[string]string{
	"error.not_found":         "अनुरोधित संसाधन नहीं मिला",
	"error.unauthorized":      "प्रमाणीकरण आवश्यक है",
	"error.forbidden":         "आपको यह करने की अनुमति नहीं है",
	"error.bad_request":       "अमान्य अनुरोध",
	"error.internal":          "सर्वर में कुछ गड़बड़ हो गई",
	"error.unavailable":       "सेवा अस्थायी रूप से उपलब्ध नहीं है, कृपया पुनः प्रयास करें",
	"error.too_many_requests": "बहुत अधिक अनुरोध, कृपया थोड़ा रुकें",
	"error.validation":        "कुछ फ़ील्ड अनुपस्थित या अमान्य हैं",

	"chat.message_deleted":      "संदेश हटाया गया",
	"chat.conversation_deleted": "बातचीत हटाई गई",
	"chat.marked_read":          "संदेश पढ़े गए के रूप में चिह्नित",
	"chat.blocked":              "उपयोगकर्ता अवरुद्ध",
	"chat.unblocked":            "उपयोगकर्ता अनवरुद्ध",
	"push.new_message_title":    "%s का नया संदेश",
	"push.attachment_body":      "आपको एक अटैचमेंट भेजा",
}
