package availability

import (
	"context"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu     sync.Mutex
	rules  map[int]map[time.Weekday]Rule // userId -> weekDay -> rule
	nextId int
	// FailWith makes every call return the given error when set.
	FailWith error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{rules: make(map[int]map[time.Weekday]Rule)}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[int]map[time.Weekday]Rule, len(r.rules))
	for userId, byDay := range r.rules {
		copied := make(map[time.Weekday]Rule, len(byDay))
		for day, rule := range byDay {
			copied[day] = rule
		}
		snapshot[userId] = copied
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.rules = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) GetRules(ctx context.Context, userId int) ([]Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	rules := make([]Rule, 0, len(r.rules[userId]))
	for _, rule := range r.rules[userId] {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].WeekDay < rules[j].WeekDay })
	return rules, nil
}

func (r *RepositoryStub) GetRule(ctx context.Context, userId int, weekDay time.Weekday) (Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return Rule{}, r.FailWith
	}
	rule, ok := r.rules[userId][weekDay]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return rule, nil
}

func (r *RepositoryStub) DeleteRules(ctx context.Context, userId int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return 0, r.FailWith
	}
	count := len(r.rules[userId])
	delete(r.rules, userId)
	return count, nil
}

func (r *RepositoryStub) StoreRules(ctx context.Context, userId int, rules []Rule) ([]Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	if r.rules[userId] == nil {
		r.rules[userId] = make(map[time.Weekday]Rule)
	}
	stored := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		r.nextId++
		rule.Id = r.nextId
		r.rules[userId][rule.WeekDay] = rule
		stored = append(stored, rule)
	}
	return stored, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[int]map[time.Weekday]Rule)
	r.nextId = 0
	r.FailWith = nil
}
