package cache_test

import (
	"testing"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.Identity](5 * time.Minute)

	c.Set("acc-1", &domain.Identity{FirstName: "Sara", Department: "Sales"})

	got, ok := c.Get("acc-1")
	if !ok {
		t.Fatal("expected cached identity")
	}
	if got.FirstName != "Sara" || got.Department != "Sales" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[*domain.Identity](5 * time.Minute)

	if _, ok := c.Get("never-set"); ok {
		t.Fatal("expected a miss for an unknown key")
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := cache.New[*domain.Identity](5 * time.Minute)

	c.Set("acc-1", &domain.Identity{Position: "Employee"})
	c.Set("acc-1", &domain.Identity{Position: "Manager"})

	got, ok := c.Get("acc-1")
	if !ok {
		t.Fatal("expected cached identity")
	}
	if got.Position != "Manager" {
		t.Errorf("expected latest value, got '%s'", got.Position)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[*domain.Identity](50 * time.Millisecond)

	c.Set("acc-1", &domain.Identity{FirstName: "Sara"})
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("acc-1"); ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[[]domain.Employee](5 * time.Minute)

	c.Set("all", []domain.Employee{{EmployeeID: "EMP100001"}})
	c.Delete("all")

	if _, ok := c.Get("all"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}
