package scraper

import (
	"context"
	"errors"
	"sync"
)

type fakeLoader struct {
	mu    sync.Mutex
	page  Page
	err   error
	calls []PageRequest
}

func (f *fakeLoader) Load(_ context.Context, req PageRequest) (Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return Page{}, f.err
	}
	p := f.page
	if p.URL == "" {
		p.URL = req.URL
	}
	return p, nil
}

type fakeText struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeText) Extract(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

var errTimeout = errors.New("navigation timeout")
