package response

// FallbackQuestion is shown to the user when the model output cannot be used.
const FallbackQuestion = "There seems to be something wrong with request processing. " +
	"An invalid result was received. Try increasing 'Max new tokens' (max_tokens) parameter. " +
	"If that doesn't help, contact support."

// FallbackPayload is the well-formed response substituted for invalid output.
func FallbackPayload() QueryList {
	return QueryList{Question: FallbackQuestion, Queries: []QueryRequest{}}
}

// fallbackText is computed once; encoding a constant payload cannot fail.
var fallbackText = func() string {
	s, err := FallbackPayload().Encode()
	if err != nil {
		panic(err)
	}
	return s
}()

// Fallback returns the serialized fallback payload.
func Fallback() string {
	return fallbackText
}

// IsFallback reports whether text is the fallback payload.
func IsFallback(text string) bool {
	return text == fallbackText
}
