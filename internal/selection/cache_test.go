package selection

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skylight-cinema/box-office/internal/model"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSetAndGet(t *testing.T) {
	c := NewCache()
	c.Set(day, model.ShowEvening, []string{"G-1", "G-2"})
	assert.ElementsMatch(t, []string{"G-1", "G-2"}, c.Get(day, model.ShowEvening))
	assert.Empty(t, c.Get(day, model.ShowNight))
}

func TestKeyIgnoresTimeOfDay(t *testing.T) {
	c := NewCache()
	c.Set(day.Add(14*time.Hour), model.ShowEvening, []string{"G-1"})
	assert.Equal(t, []string{"G-1"}, c.Get(day, model.ShowEvening))
}

func TestSetEmptyClears(t *testing.T) {
	c := NewCache()
	c.Set(day, model.ShowEvening, []string{"G-1"})
	c.Set(day, model.ShowEvening, nil)
	assert.Empty(t, c.Get(day, model.ShowEvening))
}

func TestAddRemove(t *testing.T) {
	c := NewCache()
	c.Add(day, model.ShowMatinee, []string{"S-1"})
	c.Add(day, model.ShowMatinee, []string{"S-2", "S-1"})
	assert.ElementsMatch(t, []string{"S-1", "S-2"}, c.Get(day, model.ShowMatinee))

	c.Remove(day, model.ShowMatinee, []string{"S-1"})
	assert.Equal(t, []string{"S-2"}, c.Get(day, model.ShowMatinee))

	c.Remove(day, model.ShowMatinee, []string{"S-2"})
	assert.Empty(t, c.Get(day, model.ShowMatinee))
}

func TestClear(t *testing.T) {
	c := NewCache()
	c.Set(day, model.ShowEvening, []string{"G-1"})
	c.Set(day, model.ShowNight, []string{"G-2"})
	c.Clear(day, model.ShowEvening)
	assert.Empty(t, c.Get(day, model.ShowEvening))
	assert.Equal(t, []string{"G-2"}, c.Get(day, model.ShowNight))
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(day, model.ShowEvening, []string{"G-1"})
			c.Get(day, model.ShowEvening)
			c.Remove(day, model.ShowEvening, []string{"G-1"})
		}()
	}
	wg.Wait()
}
