package store

import "caspomat/internal/account/models"

// Defaults returns the built-in customer directory used whenever no durable
// state exists yet. Callers get a fresh map on every call.
func Defaults() map[string]models.Account {
	return map[string]models.Account{
		"Avi Cohen":   {Identity: "Avi Cohen", PIN: "1234", Balance: 1000},
		"Yossi Cohen": {Identity: "Yossi Cohen", PIN: "6543", Balance: 500},
		"Yuri Levi":   {Identity: "Yuri Levi", PIN: "5852", Balance: 800},
	}
}

func clone(in map[string]models.Account) map[string]models.Account {
	out := make(map[string]models.Account, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
