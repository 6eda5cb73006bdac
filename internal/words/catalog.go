package words

import "golang.org/x/text/language"

// pairs is a compact helper for declaring a theme's word pairs.
func pairs(words ...string) []Pair {
	out := make([]Pair, 0, len(words)/2)
	for i := 0; i+1 < len(words); i += 2 {
		out = append(out, Pair{Civilian: words[i], Impostor: words[i+1]})
	}
	return out
}

// defaultThemes is the curated catalog shipped with the service.
var defaultThemes = []Theme{
	{ID: "beverages", Language: language.English, Pairs: pairs(
		"Beer", "Wine",
		"Coffee", "Tea",
		"Cola", "Pepsi",
		"Juice", "Smoothie",
		"Water", "Sparkling Water",
	)},
	{ID: "animals", Language: language.English, Pairs: pairs(
		"Cat", "Dog",
		"Lion", "Tiger",
		"Rabbit", "Hamster",
		"Eagle", "Hawk",
		"Dolphin", "Whale",
	)},
	{ID: "tech", Language: language.English, Pairs: pairs(
		"iPhone", "Android",
		"Facebook", "Twitter",
		"Laptop", "Tablet",
		"Netflix", "YouTube",
		"Google", "Bing",
	)},
	{ID: "nature", Language: language.English, Pairs: pairs(
		"Sun", "Moon",
		"Ocean", "Lake",
		"Mountain", "Hill",
		"Forest", "Jungle",
		"River", "Stream",
	)},
	{ID: "music", Language: language.English, Pairs: pairs(
		"Guitar", "Violin",
		"Piano", "Keyboard",
		"Drums", "Percussion",
		"Rock", "Metal",
		"Jazz", "Blues",
	)},
	{ID: "sports", Language: language.English, Pairs: pairs(
		"Soccer", "Basketball",
		"Tennis", "Badminton",
		"Swimming", "Diving",
		"Running", "Jogging",
		"Skiing", "Snowboarding",
	)},
	{ID: "food", Language: language.English, Pairs: pairs(
		"Pizza", "Pasta",
		"Burger", "Sandwich",
		"Sushi", "Sashimi",
		"Ice Cream", "Frozen Yogurt",
		"Cake", "Pie",
	)},
	{ID: "movies", Language: language.English, Pairs: pairs(
		"Harry Potter", "Lord of the Rings",
		"Star Wars", "Star Trek",
		"Batman", "Superman",
		"Titanic", "Avatar",
		"Matrix", "Inception",
	)},
	{ID: "superheroes", Language: language.English, Pairs: pairs(
		"Spider-Man", "Deadpool",
		"Thor", "Loki",
		"Iron Man", "Captain America",
		"Hulk", "The Thing",
		"Wonder Woman", "Captain Marvel",
	)},

	{ID: "beverages", Language: language.French, Pairs: pairs(
		"Bière", "Vin",
		"Café", "Thé",
		"Jus", "Smoothie",
		"Eau", "Eau pétillante",
		"Champagne", "Cidre",
	)},
	{ID: "animals", Language: language.French, Pairs: pairs(
		"Chat", "Chien",
		"Lion", "Tigre",
		"Lapin", "Hamster",
		"Aigle", "Faucon",
		"Dauphin", "Baleine",
	)},
	{ID: "tech", Language: language.French, Pairs: pairs(
		"iPhone", "Android",
		"Ordinateur portable", "Tablette",
		"Netflix", "YouTube",
		"Clavier", "Souris",
	)},
	{ID: "nature", Language: language.French, Pairs: pairs(
		"Soleil", "Lune",
		"Océan", "Lac",
		"Montagne", "Colline",
		"Forêt", "Jungle",
		"Rivière", "Ruisseau",
	)},
	{ID: "music", Language: language.French, Pairs: pairs(
		"Guitare", "Violon",
		"Piano", "Synthétiseur",
		"Batterie", "Percussions",
		"Rock", "Métal",
		"Jazz", "Blues",
	)},
	{ID: "sports", Language: language.French, Pairs: pairs(
		"Football", "Basket",
		"Tennis", "Badminton",
		"Natation", "Plongée",
		"Ski", "Snowboard",
	)},
	{ID: "food", Language: language.French, Pairs: pairs(
		"Pizza", "Pâtes",
		"Croissant", "Pain au chocolat",
		"Crêpe", "Gaufre",
		"Glace", "Sorbet",
		"Gâteau", "Tarte",
	)},
	{ID: "movies", Language: language.French, Pairs: pairs(
		"Harry Potter", "Le Seigneur des anneaux",
		"Star Wars", "Star Trek",
		"Batman", "Superman",
		"Titanic", "Avatar",
	)},
	{ID: "superheroes", Language: language.French, Pairs: pairs(
		"Spider-Man", "Deadpool",
		"Thor", "Loki",
		"Iron Man", "Captain America",
		"Hulk", "La Chose",
	)},
}
