package synth

// Comment, platform, and naming pools used by the generators.
var (
	GoodComments = []string{
		"Great!",
		"Love this video thing!",
		"Feels like I am there!",
		"Good",
		"Highfive rocks",
	}
	BadComments = []string{
		"Disconnected",
		"Video dropouts",
		"Crackling audio",
		"Slows computer down",
		"I am ugly",
	}
	OperatingSystems = []string{"Mac OSX", "Windows", "Linux", "ios", "Android"}
	CallTypes        = []string{"Web", "Presentation", "Room-and-Web", "Multi-room-and-Web"}
	Drivers          = []string{"Video", "Audio", "Network"}
	ProjectNames     = []string{"Pilot", "Pro Eval", "Global Launch", "QBR", "Case Study"}
	MetricNames      = []string{"7DAU", "CPW", "CH/B/D", "RU", "Diversity"}
)
