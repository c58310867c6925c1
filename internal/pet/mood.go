package pet

// DetermineMood returns a mood string based on priority-ordered rules.
// Priority: Mischievous > Sleepy > Hungry > Bored > Happy > Content
func DetermineMood(p Pet) string {
	if p.Transformed {
		return "mischievous"
	}

	if p.Energy < 20 {
		return "sleepy"
	}

	if p.Hunger > 70 {
		return "hungry"
	}

	if p.Happiness < 30 {
		return "bored"
	}

	if p.Happiness > 70 && p.Hunger < 40 && p.Energy > 40 {
		return "happy"
	}

	return "content"
}
