package comparison

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// BalancedCategories is the fixed set of gallery categories, in display order.
var BalancedCategories = []string{
	"Fashion & Lifestyle",
	"Sculpture & Installations",
	"Tech & Futurism",
	"Myth & Legend",
	"Portraits & People",
	"Interiors & Still Life",
	"Architecture & Structures",
	"Nature & Wildlife",
	"Abstract & Experimental",
}

type categoryRule struct {
	label    string
	pattern  *regexp.Regexp
	original []string
}

var categoryRules = []categoryRule{
	{
		label:    "Fashion & Lifestyle",
		pattern:  regexp.MustCompile(`(?i)\b(fashion|runway|couture|wardrobe|outfit|garment|dress|haute|catwalk|model|styling|makeup|hairstyle|beauty shoot|street style|costume|attire|ensemble)\b`),
		original: []string{"fashion", "textile"},
	},
	{
		label:    "Sculpture & Installations",
		pattern:  regexp.MustCompile(`(?i)\b(sculpture|statue|installation|bust|carving|marble|bronze|stone|ceramic|clay|relief|woodcarving|figurine|3d print|kinetic|monument|bas-relief)\b`),
		original: []string{"sculpture"},
	},
	{
		label:    "Tech & Futurism",
		pattern:  regexp.MustCompile(`(?i)\b(futuristic|future|sci[- ]?fi|science fiction|cyberpunk|steampunk|robot|android|mecha|mech|drone|spaceship|spacecraft|ai|quantum|hologram|interface|augmented reality|technology|tech|neon|synthwave|data|circuit|nanotech|metaverse|virtual reality|digital|cybernetic|matrix|simulation|space station|galaxy|nebula|astronaut|starship|cosmic|interstellar|celestial|satellite|planetary|spacesuit)\b`),
		original: []string{"digital art"},
	},
	{
		label:   "Myth & Legend",
		pattern: regexp.MustCompile(`(?i)\b(fantasy|myth|mythic|mythical|legend|heroic|hero|epic|dragon|wizard|witch|spell|magic|magical|sorcerer|fairy|fairytale|fable|goddess|god|deity|spirit|creature|monster|beast|oracle|prophecy|enchanted|griffin|phoenix|mermaid|centaur|angel|demon|vampire|werewolf|ghost|haunted|supernatural|pantheon|mythology|ancient gods|divine)\b`),
	},
	{
		label:    "Portraits & People",
		pattern:  regexp.MustCompile(`(?i)\b(portrait|character|figure|person|people|woman|man|girl|boy|child|family|crowd|dancer|musician|performer|warrior|soldier|pilot|chef|artisan|monk|sailor|athlete|actor|actress|self-portrait|queen|king|emperor|empress|pharaoh|leader|teacher|students|worker|workers|villagers|priest|priestess|philosopher|scientist|inventor|artist|painter|composer|writer|author|poet|scholar|couple|group portrait)\b`),
		original: []string{"portrait"},
	},
	{
		label:   "Interiors & Still Life",
		pattern: regexp.MustCompile(`(?i)\b(still life|tabletop|table setting|arrangement|vase|bouquet|flowers|floral|botanical|fruit|vegetable|produce|dessert|cake|pastry|bread|cheese|wine|coffee|tea|banquet|feast|culinary|cuisine|kitchen counter|spread|charcuterie|harvest|cornucopia|tea ceremony|coffee service)\b`),
	},
	{
		label:    "Interiors & Still Life",
		pattern:  regexp.MustCompile(`(?i)\b(interior|living room|kitchen|dining|bedroom|studio|workspace|office|library|atelier|workshop|apartment|loft|cafe|restaurant|bar|lounge|salon|foyer|hallway|gallery|museum hall|auditorium|theater interior|furniture|sofa|armchair|chandelier|ceiling|atrium|lobby|hall|ballroom|banquet hall)\b`),
		original: []string{"interior"},
	},
	{
		label:    "Architecture & Structures",
		pattern:  regexp.MustCompile(`(?i)\b(city|cityscape|urban|street|avenue|plaza|square|architecture|architectural|building|skyscraper|tower|bridge|temple|castle|palace|cathedral|church|mosque|pagoda|pyramid|ruins|monastery|fortress|citadel|harbor|harbour|port|market|bazaar|stadium|colosseum|theater|arena|museum|observatory|resort|hotel|village|town|metropolis|megacity|neighborhood|district|train|subway|tram|transport hub|railway|industrial|factory)\b`),
		original: []string{"architecture", "building"},
	},
	{
		label:    "Nature & Wildlife",
		pattern:  regexp.MustCompile(`(?i)\b(landscape|mountain|mountains|forest|woodland|woods|grove|jungle|rainforest|desert|canyon|valley|meadow|river|waterfall|ocean|sea|island|coast|shore|beach|cliff|glacier|volcano|aurora|savanna|reef|garden|park|field|prairie|storm|weather|sunset|sunrise|skies|clouds|moon|stars|constellation|planet|celestial|skyline|horizon|countryside|pastoral|flora|fauna|wildlife|animals|animal|bird|birds|butterfly|insect|fox|wolf|bear|lion|tiger|elephant|horse|deer|stag|otter|seal|penguin|whale|dolphin|fish|coral|reef)\b`),
		original: []string{"landscape", "seascape"},
	},
	{
		label:    "Abstract & Experimental",
		pattern:  regexp.MustCompile(`(?i)\b(abstract|geometric|geometry|pattern|kaleidoscope|psychedelic|glitch|surreal|dream|dreamscape|experimental|avant-garde|conceptual|expressionist|cubist|minimalist|minimalism|maximalist|color field|gestural|nonlinear|dada|bauhaus|constructivist|suprematist|op art|fractal|algorithmic|generative|data art|concept art|visionary|symbolic|symbolism|ornate|filigree|baroque|rococo|ornament|mandala|intricate|tapestry|mosaic|stained glass|patterned|arabesque|opulent|decorative)\b`),
		original: []string{"mixed media", "illustration", "painting"},
	},
}

// Preferences returns the categories a record fits, strongest matches first,
// followed by every balanced category as a fallback.
func Preferences(prompt, originalCategory string) []string {
	text := strings.ToLower(prompt)
	original := strings.ToLower(originalCategory)

	var prefs []string
	add := func(label string) {
		for _, p := range prefs {
			if p == label {
				return
			}
		}
		prefs = append(prefs, label)
	}

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			add(rule.label)
			continue
		}
		for _, hint := range rule.original {
			if strings.Contains(original, hint) {
				add(rule.label)
				break
			}
		}
	}
	for _, label := range BalancedCategories {
		add(label)
	}
	return prefs
}

// Rebalance reassigns records across BalancedCategories so that no category
// holds more than ceil(n/len(BalancedCategories)) records. Records are
// assigned in collation order of category then prompt; input order is
// preserved and the source category is kept in OriginalCategory.
func Rebalance(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	coll := collate.New(language.Und)
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		if c := coll.CompareString(ra.Category, rb.Category); c != 0 {
			return c < 0
		}
		return coll.CompareString(ra.Prompt, rb.Prompt) < 0
	})

	limit := (len(records) + len(BalancedCategories) - 1) / len(BalancedCategories)
	counts := make(map[string]int, len(BalancedCategories))

	out := make([]Record, len(records))
	for _, idx := range order {
		rec := records[idx]
		assigned := ""
		for _, label := range Preferences(rec.Prompt, rec.Category) {
			if counts[label] < limit {
				assigned = label
				break
			}
		}
		if assigned == "" {
			assigned = leastFilled(counts)
		}
		counts[assigned]++

		rec.OriginalCategory = rec.Category
		if rec.OriginalCategory == "" {
			rec.OriginalCategory = Uncategorized
		}
		rec.Category = assigned
		out[idx] = rec
	}
	return out
}

func leastFilled(counts map[string]int) string {
	best := BalancedCategories[0]
	for _, label := range BalancedCategories[1:] {
		if counts[label] < counts[best] {
			best = label
		}
	}
	return best
}
