package candidates

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Category is an evergreen content theme and the subreddits it is
// researched in.
type Category struct {
	Name       string
	Subreddits []string
}

var categories = []Category{
	{"Amazing Physics Explained", []string{"askscience", "physics", "explainlikeimfive", "quantum", "astrophysics"}},
	{"Biology's Strangest Creatures", []string{"naturewasmetal", "biology", "deepsea", "zoology", "paleontology"}},
	{"Everyday Tech Secrets", []string{"technology", "howstuffworks", "gadgets", "Futurology", "todayilearned"}},
	{"Medical Marvels & Mysteries", []string{"medicine", "todayilearned", "science", "AskDocs"}},
	{"Space Discoveries & Phenomena", []string{"space", "astronomy", "astrophotography", "Hubble", "nasa"}},
	{"Chemistry in Action", []string{"chemistry", "chemicalreactiongifs", "science", "OrganicChemistry"}},
	{"Forgotten Inventions", []string{"history", "inventions", "retrofuturism", "obscuremedia", "engineering"}},
	{"Architectural Masterpieces", []string{"architecture", "bizarrebuildings", "urbanexploration", "urbanplanning"}},
	{"Hidden Historical Events", []string{"history", "todayilearned", "unsolvedmysteries", "AskHistorians"}},
	{"Ancient Engineering Marvels", []string{"ancienthistory", "Archaeology", "lostcivilizations", "ancientegypt"}},
	{"Mythology Explained", []string{"mythology", "folklore", "legends", "GreekMythology"}},
	{"Lost Civilizations", []string{"lostcivilizations", "archaeology", "ancientmysteries", "Atlantis", "ancientrome"}},
	{"Incredible Natural Phenomena", []string{"earthporn", "weathergifs", "SevereWeather", "geology"}},
	{"Clever Psychology Hacks", []string{"psychology", "lifeprotips", "socialskills", "getdisciplined"}},
	{"Cognitive Biases Explained", []string{"cognitivebias", "philosophy", "psychology", "changemyview"}},
	{"Common Misconceptions Debunked", []string{"todayilearned", "confidentlyincorrect", "explainlikeimfive", "skeptic"}},
	{"Famous Unsolved Mysteries", []string{"unsolvedmysteries", "truecrime", "creepy", "highstrangeness"}},
	{"Self Improvement & Habits", []string{"selfimprovement", "getdisciplined", "DecidingToBeBetter", "Stoicism"}},
	{"Money & Career", []string{"personalfinance", "financialindependence", "investing", "careerguidance"}},
	{"Technology & Tools", []string{"ChatGPT", "programming", "Futurology", "SideProject"}},
}

// Categories returns every evergreen category.
func Categories() []Category {
	return slices.Clone(categories)
}

// CategoryNames returns the category names in their defined order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// LookupCategory finds a category by case-insensitive name.
func LookupCategory(name string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q", name)
}

// PickCategory returns the named category, or a random one when name is
// empty.
func PickCategory(name string, r *rand.Rand) (Category, error) {
	if name != "" {
		return LookupCategory(name)
	}
	return categories[r.IntN(len(categories))], nil
}
