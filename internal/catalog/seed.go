package catalog

// Seed returns the built-in catalog used when the backend is unreachable at
// startup. A fixed literal set, so the client stays usable in demo or
// offline settings; the first task is unlocked, the rest are gated.
func Seed() Catalog {
	return Catalog{
		Source: SourceFallback,
		Tasks: []Task{
			{
				ID:          1,
				Title:       "SQL Injection",
				Description: "Break into a login form by bending its SQL query.",
				Reward:      Reward{XP: 25, Coins: 15},
				Locked:      false,
			},
			{
				ID:          2,
				Title:       "XSS - Stored",
				Description: "Plant a script payload that survives the page reload.",
				Reward:      Reward{XP: 30, Coins: 20},
				Locked:      true,
			},
			{
				ID:          3,
				Title:       "Hash Cracking",
				Description: "Identify the hash algorithm, then run it down with a wordlist.",
				Reward:      Reward{XP: 35, Coins: 25},
				Locked:      true,
			},
		},
	}
}
