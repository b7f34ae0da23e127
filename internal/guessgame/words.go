package guessgame

// words is the vocabulary matches draw from. Every entry is a single
// lower-case noun that is reasonable to sketch in a minute.
var words = []string{
	// Animals
	"cat", "dog", "elephant", "giraffe", "lion", "tiger", "bear", "rabbit", "mouse", "fish",
	"bird", "snake", "frog", "turtle", "monkey", "penguin", "dolphin", "whale", "shark", "octopus",
	"butterfly", "bee", "spider", "ant", "horse", "cow", "pig", "sheep", "chicken", "duck",
	// Objects
	"house", "car", "tree", "flower", "book", "chair", "table", "lamp", "phone", "computer",
	"clock", "door", "window", "bed", "couch", "television", "mirror", "umbrella", "bag", "shoe",
	"hat", "glasses", "watch", "key", "bottle", "cup", "plate", "fork", "spoon", "knife",
	// Food
	"apple", "banana", "orange", "pizza", "hamburger", "hotdog", "cake", "cookie", "donut",
	"bread", "cheese", "egg", "carrot", "broccoli", "corn", "grape", "strawberry", "watermelon", "pineapple",
	// Nature
	"sun", "moon", "star", "cloud", "rain", "rainbow", "mountain", "beach", "ocean", "river",
	"forest", "desert", "volcano", "island", "waterfall", "lightning", "snowflake", "tornado", "fire", "leaf",
	// Transportation
	"airplane", "helicopter", "boat", "ship", "train", "bus", "bicycle", "motorcycle", "rocket", "submarine",
	// Buildings & Places
	"castle", "church", "hospital", "school", "library", "restaurant", "hotel", "bridge", "lighthouse", "tent",
	// Sports & Activities
	"ball", "guitar", "piano", "drum", "camera", "paintbrush", "scissors", "hammer", "ladder", "balloon",
	// People & Body
	"baby", "robot", "ghost", "pirate", "ninja", "wizard", "princess", "king", "clown", "angel",
	// Misc
	"heart", "diamond", "crown", "sword", "shield", "arrow", "candle", "present", "treasure", "flag",
}

// pickWords returns two distinct words, resampling the second index until it
// differs from the first.
func pickWords(intn func(int) int) (string, string) {
	i := intn(len(words))
	j := intn(len(words))
	for j == i {
		j = intn(len(words))
	}
	return words[i], words[j]
}
