package main

import "image/color"

type demoHighlight struct {
	text  string
	note  string
	color int
}

type demoChapter struct {
	title      string
	highlights []demoHighlight
}

// demoBook is a sideloaded EPUB when file is set, otherwise a store book
// kept under .kobo/kepub/<storeID>.
type demoBook struct {
	file          string
	storeID       string
	title         string
	author        string
	isbn          string
	publisher     string
	language      string
	description   string
	daysSinceRead int
	cover         color.RGBA
	chapters      []demoChapter
}

func publicDomainBooks() []demoBook {
	return []demoBook{
		{
			file:          "Books/Meditations.epub",
			title:         "Meditations",
			author:        "Marcus Aurelius",
			isbn:          "9780140449334",
			publisher:     "Penguin Classics",
			language:      "en",
			description:   "Private notes of a Roman emperor on Stoic philosophy.",
			daysSinceRead: 1,
			cover:         color.RGBA{R: 120, G: 40, B: 40, A: 255},
			chapters: []demoChapter{
				{title: "Book Two", highlights: []demoHighlight{
					{text: "You have power over your mind - not outside events. Realize this, and you will find strength."},
					{text: "The happiness of your life depends upon the quality of your thoughts.", color: 2},
				}},
				{title: "Book Five", highlights: []demoHighlight{
					{text: "The soul becomes dyed with the color of its thoughts.", note: "Compare with Seneca, letter 2"},
					{text: "Very little is needed to make a happy life; it is all within yourself, in your way of thinking."},
				}},
				{title: "Book Ten", highlights: []demoHighlight{
					{text: "Waste no more time arguing about what a good man should be. Be one.", color: 1},
				}},
			},
		},
		{
			file:          "Books/Letters from a Stoic.epub",
			title:         "Letters from a Stoic",
			author:        "Seneca",
			publisher:     "Penguin Classics",
			language:      "en",
			daysSinceRead: 3,
			cover:         color.RGBA{R: 40, G: 70, B: 120, A: 255},
			chapters: []demoChapter{
				{title: "Letter I", highlights: []demoHighlight{
					{text: "It is not that we have a short time to live, but that we waste a lot of it."},
				}},
				{title: "Letter XIII", highlights: []demoHighlight{
					{text: "We suffer more often in imagination than in reality.", note: "Reread when anxious", color: 3},
					{text: "Difficulties strengthen the mind, as labor does the body."},
				}},
			},
		},
		{
			file:          "Books/Pride and Prejudice.epub",
			title:         "Pride and Prejudice",
			author:        "Jane Austen",
			isbn:          "9780141439518",
			language:      "en",
			description:   "A novel of manners set in rural England.",
			daysSinceRead: 7,
			cover:         color.RGBA{R: 200, G: 170, B: 90, A: 255},
			chapters: []demoChapter{
				{title: "Chapter 1", highlights: []demoHighlight{
					{text: "It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife."},
				}},
				{title: "Chapter 11", highlights: []demoHighlight{
					{text: "I declare after all there is no enjoyment like reading! How much sooner one tires of any thing than of a book!", color: 1},
				}},
			},
		},
		{
			storeID:       "9c1a5d2e-4b7f-4e21-8d3a-6f0b2c9e7a11",
			title:         "The Picture of Dorian Gray",
			author:        "Oscar Wilde",
			publisher:     "Standard Ebooks",
			language:      "en",
			daysSinceRead: 12,
			cover:         color.RGBA{R: 60, G: 110, B: 60, A: 255},
			chapters: []demoChapter{
				{title: "Chapter II", highlights: []demoHighlight{
					{text: "The only way to get rid of a temptation is to yield to it."},
					{text: "To define is to limit.", note: "Lord Henry, again"},
				}},
			},
		},
		{
			file:          "Books/Frankenstein.epub",
			title:         "Frankenstein",
			author:        "Mary Shelley",
			language:      "en",
			daysSinceRead: 30,
			cover:         color.RGBA{R: 30, G: 30, B: 30, A: 255},
			chapters: []demoChapter{
				{title: "Letter 1"},
			},
		},
	}
}
