package feature

// Kind tells the view router how a feature opens.
type Kind string

const (
	KindChat    Kind = "chat"
	KindDisease Kind = "disease"
	KindPersona Kind = "persona"
)

// Feature is one entry of the home screen catalog.
type Feature struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
}

// Catalog lists the home screen features in display order.
func Catalog() []Feature {
	return []Feature{
		{ID: "disease", Title: "AI-Powered Disease Detection", Kind: KindDisease, Description: "Take a photo of a crop leaf and our AI will help identify diseases, suggesting immediate remedies to protect your harvest."},
		{ID: "chat", Title: "Ask Savi - Your AI Assistant", Kind: KindChat, Description: "Ask any general farming question in your local language. Savi provides instant, easy-to-understand answers."},
		{ID: "market", Title: "Live Mandi Prices & Forecasts", Kind: KindPersona, Description: "Get real-time market prices from your nearby Mandis. Our AI predicts future prices to help you sell at the best time."},
		{ID: "crop", Title: "Personalized Crop Advisory", Kind: KindPersona, Description: "Receive tailored advice on which crops to plant, when to sow, and how to irrigate, based on your farm's location and soil type."},
		{ID: "soil", Title: "Smart Soil Health Advisory", Kind: KindPersona, Description: "Understand your soil's needs. Get recommendations on fertilizers and nutrients to improve soil health and increase yield."},
		{ID: "alerts", Title: "Weather & Pest Alerts", Kind: KindPersona, Description: "Receive timely alerts about upcoming bad weather, potential pest attacks, and disease outbreaks in your area."},
		{ID: "scheme", Title: "Government Scheme Info", Kind: KindPersona, Description: "Easily find and understand government schemes, subsidies, and insurance options that can benefit you."},
	}
}

// KindOf maps a catalog id to its kind. Unknown ids are treated as persona features
// so that resolution fails later with a not-found error.
func KindOf(id string) Kind {
	switch id {
	case "chat":
		return KindChat
	case "disease":
		return KindDisease
	default:
		return KindPersona
	}
}
