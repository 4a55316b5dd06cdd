package course

import "strings"

type grammarQuestion struct {
	question, answer, explanation string
	options                       []string
}

// grammarCatalogue holds four questions per known grammar topic; keys are lower-cased topics.
var grammarCatalogue = map[string][]grammarQuestion{
	"present simple": {
		{"She ___ to school every day.", "goes", "With he/she/it the verb takes -s/-es.", []string{"go", "goes", "going", "gone"}},
		{"They ___ football on weekends.", "play", "With a plural subject use the base form.", []string{"play", "plays", "playing", "played"}},
		{"He ___ English every day.", "studies", "With he/she/it the verb takes -s/-es.", []string{"study", "studies", "studying", "studied"}},
		{"I ___ coffee in the morning.", "drink", "With I/you/we/they use the base form.", []string{"drink", "drinks", "drinking", "drank"}},
	},
	"to be": {
		{"I ___ a student.", "am", `"I" takes "am".`, []string{"am", "is", "are", "be"}},
		{"She ___ happy today.", "is", `He/she/it take "is".`, []string{"am", "is", "are", "be"}},
		{"They ___ my friends.", "are", `You/we/they take "are".`, []string{"am", "is", "are", "be"}},
		{"You ___ very kind.", "are", `"You" takes "are".`, []string{"am", "is", "are", "be"}},
	},
	"articles": {
		{"I have ___ apple.", "an", `Use "an" before a vowel sound.`, []string{"a", "an", "the", "no article"}},
		{"This is ___ book.", "a", `Use "a" before a consonant sound.`, []string{"a", "an", "the", "no article"}},
		{"___ sun is bright.", "The", `Use "the" with something unique.`, []string{"A", "An", "The", "No article"}},
		{"I need ___ umbrella.", "an", `Use "an" before a vowel sound.`, []string{"a", "an", "the", "no article"}},
	},
	"plural nouns": {
		{"I have two ___.", "cats", "Most nouns add -s in the plural.", []string{"cat", "cats", "cates", "caties"}},
		{"There are many ___ in the library.", "books", "Most nouns add -s in the plural.", []string{"book", "books", "bookes", "bookies"}},
		{"She has three ___.", "children", `"Child" has the irregular plural "children".`, []string{"child", "childs", "children", "childrens"}},
		{"I see five ___.", "dogs", "Most nouns add -s in the plural.", []string{"dog", "dogs", "doges", "dogies"}},
	},
	"personal pronouns": {
		{"___ am a teacher.", "I", `"I" is the first person singular.`, []string{"I", "You", "He", "They"}},
		{"___ is my friend.", "He", `"He" refers to one male person.`, []string{"I", "You", "He", "They"}},
		{"___ are students.", "They", `"They" is plural.`, []string{"I", "He", "She", "They"}},
		{"___ is very kind.", "She", `"She" refers to one female person.`, []string{"I", "You", "She", "They"}},
	},
	"present perfect": {
		{"I ___ here for 5 years.", "have lived", `have/has + past participle with "for" and a period.`, []string{"live", "lived", "have lived", "am living"}},
		{"She ___ in London since 2010.", "has lived", `have/has + past participle with "since" and a point in time.`, []string{"lives", "lived", "has lived", "is living"}},
		{"They ___ each other for 10 years.", "have known", "An action that started in the past and continues now.", []string{"know", "knew", "have known", "are knowing"}},
		{"I ___ my homework already.", "have finished", `Present perfect with "already".`, []string{"finish", "finished", "have finished", "am finishing"}},
	},
	"past continuous": {
		{"She ___ when I called.", "was cooking", "was/were + -ing for an action in progress in the past.", []string{"cooks", "cooked", "was cooking", "has cooked"}},
		{"They ___ TV when the power went out.", "were watching", "An interrupted action in the past.", []string{"watch", "watched", "were watching", "have watched"}},
		{"I ___ dinner when you arrived.", "was cooking", "An action in progress at a moment in the past.", []string{"cook", "cooked", "was cooking", "have cooked"}},
		{"He ___ a book when I saw him.", "was reading", "was/were + -ing for an action in progress.", []string{"reads", "read", "was reading", "has read"}},
	},
	"modal verbs": {
		{"You ___ study harder. (advice)", "should", `"Should" gives advice.`, []string{"can", "should", "must", "may"}},
		{"He ___ swim very well. (ability)", "can", `"Can" expresses ability.`, []string{"can", "should", "must", "may"}},
		{"You ___ be quiet in the library. (obligation)", "must", `"Must" expresses obligation.`, []string{"can", "should", "must", "may"}},
		{"I ___ speak three languages. (ability)", "can", `"Can" expresses ability.`, []string{"can", "should", "must", "may"}},
	},
	"conditional type 1": {
		{"If it ___, I will stay home.", "rains", "If + present simple, will + base form.", []string{"rain", "rains", "will rain", "rained"}},
		{"If you ___ hard, you will succeed.", "work", `The "if" clause uses the present simple.`, []string{"work", "works", "will work", "worked"}},
		{"If she ___ time, she will help you.", "has", "If + present simple with a singular subject.", []string{"have", "has", "will have", "had"}},
		{"If they ___ early, they will catch the train.", "leave", "If + present simple with a plural subject.", []string{"leave", "leaves", "will leave", "left"}},
	},
	"passive voice": {
		{"The book ___ by Shakespeare.", "was written", "Past passive: was/were + past participle.", []string{"wrote", "was written", "is writing", "has written"}},
		{"English ___ all over the world.", "is spoken", "Present passive: is/are + past participle.", []string{"speaks", "is spoken", "spoke", "has spoken"}},
		{"The letter ___ yesterday.", "was sent", "Past passive with a finished time.", []string{"sent", "was sent", "is sent", "has sent"}},
		{"This house ___ in 1990.", "was built", "Past passive: was/were + past participle.", []string{"built", "was built", "is built", "has built"}},
	},
	"perfect continuous": {
		{"I ___ for three hours when you called.", "had been studying", "Past perfect continuous: an action lasting until a past moment.", []string{"study", "studied", "have been studying", "had been studying"}},
		{"She ___ for the company for 5 years before she quit.", "had been working", "An action lasting until another past action.", []string{"works", "worked", "has worked", "had been working"}},
		{"I ___ here for 10 years by next month.", "will have worked", "Future perfect: complete before a future moment.", []string{"work", "have worked", "will have worked", "had worked"}},
		{"By 2030, I ___ my PhD.", "will have completed", "Future perfect with a future deadline.", []string{"complete", "will complete", "will have completed", "have completed"}},
	},
	"subjunctive mood": {
		{"I suggest that he ___ harder.", "study", "suggest + that + base form.", []string{"study", "studies", "studied", "studying"}},
		{"It's important that she ___ on time.", "be", "It's important that + subject + base form.", []string{"be", "is", "was", "being"}},
		{"I recommend that he ___ a doctor.", "see", "recommend + that + base form.", []string{"see", "sees", "saw", "seeing"}},
		{"The teacher insists that every student ___ homework.", "do", "insist + that + base form.", []string{"do", "does", "did", "doing"}},
	},
	"inversion": {
		{"Never ___ such beauty.", "have I seen", "Never + auxiliary + subject + verb.", []string{"I have seen", "have I seen", "I saw", "did I saw"}},
		{"Rarely ___ so much effort.", "have I seen", "Rarely + auxiliary + subject + verb.", []string{"I have seen", "have I seen", "I saw", "did I saw"}},
		{"Only then ___ the truth.", "did I realize", "Only then + auxiliary + subject + verb.", []string{"I realized", "did I realize", "I realize", "do I realize"}},
		{"Under no circumstances ___ this rule.", "should you break", "A negative phrase first inverts subject and auxiliary.", []string{"you should break", "should you break", "you break", "do you break"}},
	},
	"cleft sentences": {
		{"It was John ___ broke the window.", "who", "It + be + focus + who/that stresses the subject.", []string{"who", "which", "that", "whom"}},
		{"What I need ___ a good rest.", "is", `A "what" clause takes a singular verb.`, []string{"is", "are", "was", "were"}},
		{"It is English ___ I want to learn.", "that", "It + be + focus + that stresses the object.", []string{"who", "which", "that", "what"}},
		{"What matters most ___ your attitude.", "is", `A "what" subject is singular.`, []string{"is", "are", "was", "were"}},
	},
	"participle clauses": {
		{"___ his work, he went home.", "Having finished", "Having + past participle for a completed action.", []string{"Finish", "Finished", "Having finished", "To finish"}},
		{"The man ___ there is my teacher.", "standing", "An -ing participle shortens an active relative clause.", []string{"stand", "stands", "standing", "stood"}},
		{"___ by many people, the book became famous.", "Read", "A past participle for a passive meaning.", []string{"Read", "Reading", "To read", "Reads"}},
		{"___ the exam, she celebrated with friends.", "Having passed", "Having + past participle for a completed action.", []string{"Pass", "Passed", "Having passed", "To pass"}},
	},
}

// grammarQuestions returns the catalogue questions of a topic; topics mentioning "perfect continuous" share theirs.
func grammarQuestions(topic string) []grammarQuestion {
	key := strings.ToLower(strings.TrimSpace(topic))
	if qs, ok := grammarCatalogue[key]; ok {
		return qs
	}
	if strings.Contains(key, "perfect continuous") {
		return grammarCatalogue["perfect continuous"]
	}
	return nil
}

// GenerateGrammarExercises builds the catalogue's multiple-choice exercises for each known grammar topic.
// Unknown topics are skipped.
func GenerateGrammarExercises(grammars []Grammar, level string, shuffle ShuffleFunc) []NewExercise {
	points, difficulty := ExercisesByLevel(level)
	var exercises []NewExercise
	for _, g := range grammars {
		for _, q := range grammarQuestions(g.Topic) {
			opts := append([]string(nil), q.options...)
			shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
			exercises = append(exercises, NewExercise{
				Question:      q.question,
				Type:          TypeMultipleChoice,
				Options:       opts,
				CorrectAnswer: q.answer,
				Explanation:   g.Topic + ": " + q.explanation,
				Difficulty:    difficulty,
				Points:        points,
			})
		}
	}
	return exercises
}
