/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package responder

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator answers with canned sentences picked from the partner's last message.
// It needs no backend, so it is always available.
type TemplateGenerator struct{}

var greetings = []string{"hi", "hello", "hey", "hiya", "yo", "good morning", "good evening"}

func (TemplateGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	last, ok := prompt.LastUserTurn()
	if !ok {
		return "", nil
	}
	last = strings.ToLower(strings.TrimSpace(last))

	switch {
	case isGreeting(last):
		return fmt.Sprintf("Hey %s! I'm offline at the moment, talk soon.", prompt.Partner), nil
	case strings.HasSuffix(last, "?"):
		return "Good question! I'm not online right now, I'll answer as soon as I'm back.", nil
	default:
		return fmt.Sprintf("Thanks for the message, %s. I'm away right now and will reply when I'm back.", prompt.Partner), nil
	}
}

func isGreeting(text string) bool {
	text = strings.TrimRight(text, "!.,:) ")
	for _, g := range greetings {
		if text == g || strings.HasPrefix(text, g+" ") || strings.HasPrefix(text, g+",") || strings.HasPrefix(text, g+"!") {
			return true
		}
	}
	return false
}
