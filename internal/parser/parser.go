// Package parser reads deck files written as blocks of prefixed lines:
//
//	Q: front of the card
//	A: back of the card
//	E: optional example sentence
//	S: optional audio reference
//
// A line of "---" or a new "Q:" closes the current card. Lines without a prefix
// continue the field above them.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/recall/internal/domain"
)

const separator = "---"

type field int

const (
	none field = iota
	front
	back
	example
	audio
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", front},
	{"A:", back},
	{"E:", example},
	{"S:", audio},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts all cards from r. Cards that fail validation are left out and
// reported in the returned error alongside the valid cards.
func Parse(r io.Reader) ([]domain.Card, error) {
	p := &cardParser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.finish()

	return p.cards, errors.Join(p.errs...)
}

type cardParser struct {
	lineNo    int
	startLine int
	current   domain.Card
	field     field
	block     []string
	cards     []domain.Card
	errs      []error
}

func (p *cardParser) line(text string) {
	p.lineNo++

	if text == separator {
		p.finish()
		return
	}

	f, content, ok := splitPrefix(text)
	if !ok {
		if p.field != none {
			p.block = append(p.block, text)
		}
		return
	}

	p.flush()
	if f == front && (p.field != none || p.current != (domain.Card{})) {
		p.finish()
	}
	if p.current == (domain.Card{}) {
		p.startLine = p.lineNo
	}
	p.field = f
	p.block = append(p.block, content)
}

// flush stores the pending block into the field it belongs to.
func (p *cardParser) flush() {
	if len(p.block) == 0 {
		return
	}
	content := strings.Join(p.block, "\n")
	switch p.field {
	case front:
		p.current.Front = content
	case back:
		p.current.Back = content
	case example:
		p.current.Example = content
	case audio:
		p.current.Audio = strings.TrimSpace(content)
	}
	p.block = nil
}

func (p *cardParser) finish() {
	p.flush()
	card := p.current
	p.current = domain.Card{}
	p.field = none

	if card == (domain.Card{}) {
		return
	}
	card.Front = strings.TrimSpace(card.Front)
	card.Back = strings.TrimSpace(card.Back)
	card.Example = strings.TrimSpace(card.Example)

	if err := validate.Struct(card); err != nil {
		p.errs = append(p.errs, invalidCard(p.startLine, err))
		return
	}
	p.cards = append(p.cards, card)
}

func splitPrefix(line string) (field, string, bool) {
	for _, pr := range prefixes {
		if rest, ok := strings.CutPrefix(line, pr.prefix); ok {
			return pr.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}

func invalidCard(line int, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, strings.ToLower(fe.Field()))
		}
		return fmt.Errorf("%w: card at line %d is missing %s", domain.ErrValidation, line, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: card at line %d: %v", domain.ErrValidation, line, err)
}
