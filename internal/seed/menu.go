package seed

// menuCategory is a demo menu section with its dishes and base prices in so'm.
type menuCategory struct {
	Name  string
	Items []menuDish
}

type menuDish struct {
	Name  string
	Price int64
}

var demoMenu = []menuCategory{
	{Name: "Milliy taomlar", Items: []menuDish{
		{"Osh", 45000},
		{"Lag'mon", 38000},
		{"Manti", 32000},
		{"Shurva", 30000},
		{"Dimlama", 42000},
		{"Norin", 36000},
	}},
	{Name: "Kaboblar", Items: []menuDish{
		{"Qiyma kabob", 18000},
		{"Jigar kabob", 16000},
		{"Tovuq kabob", 15000},
		{"Lula kabob", 19000},
	}},
	{Name: "Salatlar", Items: []menuDish{
		{"Achichuk", 12000},
		{"Olivye", 20000},
		{"Sezar", 28000},
	}},
	{Name: "Ichimliklar", Items: []menuDish{
		{"Ko'k choy", 6000},
		{"Qora choy", 6000},
		{"Kompot", 10000},
		{"Coca-Cola 0.5", 9000},
		{"Ayron", 8000},
	}},
	{Name: "Shirinliklar", Items: []menuDish{
		{"Chak-chak", 15000},
		{"Navvot", 7000},
		{"Medovik", 22000},
	}},
	{Name: "Non", Items: []menuDish{
		{"Patir non", 7000},
		{"Obi non", 5000},
	}},
}

// renamed dishes appear in old orders under names the current menu no
// longer carries, so the category resolver has to fall back on matching.
var legacyNames = map[string]string{
	"Osh":         "Toy oshi",
	"Qiyma kabob": "Qiyma kabob (katta)",
	"Ko'k choy":   "KO'K CHOY",
	"Medovik":     "Medovik tort",
}
