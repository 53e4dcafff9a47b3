package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDeck is returned for a deck file without slides.
var ErrEmptyDeck = errors.New("deck has no slides")

// Deck is the YAML file the demo rotates through.
//
//	title: Lobby screen
//	slides:
//	  - title: Welcome
//	    body: Badges are at the front desk.
//	    color: "#89b4fa"
type Deck struct {
	Title  string  `yaml:"title"`
	Slides []Slide `yaml:"slides"`
}

// Slide is one item of a deck.
type Slide struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
	Color string `yaml:"color"`
}

// LoadDeck reads a deck from path, or returns the built-in deck when path is empty.
func LoadDeck(path string) (Deck, error) {
	if path == "" {
		return DefaultDeck(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Deck{}, fmt.Errorf("read deck: %w", err)
	}

	return ParseDeck(data)
}

// ParseDeck decodes a YAML deck.
func ParseDeck(data []byte) (Deck, error) {
	var deck Deck

	if err := yaml.Unmarshal(data, &deck); err != nil {
		return Deck{}, fmt.Errorf("parse deck: %w", err)
	}

	if len(deck.Slides) == 0 {
		return Deck{}, ErrEmptyDeck
	}

	if deck.Title == "" {
		deck.Title = "autoswitch"
	}

	return deck, nil
}

// DefaultDeck is shown when no deck file is configured.
func DefaultDeck() Deck {
	return Deck{
		Title: "autoswitch",
		Slides: []Slide{
			{Title: "Interval", Body: "Switches straight to the next slide.", Color: "#89b4fa"},
			{Title: "Carousel", Body: "Slides the next item in from the right.", Color: "#a6e3a1"},
			{Title: "Fade", Body: "Cross-fades between items.", Color: "#fab387"},
			{Title: "Transform", Body: "Slides and fades at once.", Color: "#f38ba8"},
		},
	}
}
