package container

import "slices"

// Alias registers alias as another name for target. Chains are followed
// transitively on resolution; a loop is reported by Get, not here.
//
//	c.Alias("db", container.Key[*gorm.DB]())
func (c *Container) Alias(alias, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = target
}

// canonical follows the alias chain starting at id.
func (co *core) canonical(id string) (string, error) {
	co.mu.RLock()
	defer co.mu.RUnlock()

	chain := []string{id}
	for {
		target, ok := co.aliases[id]
		if !ok {
			return id, nil
		}
		if slices.Contains(chain, target) {
			return "", &CircularAliasError{Chain: append(chain, target)}
		}
		chain = append(chain, target)
		id = target
	}
}
