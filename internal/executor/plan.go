package executor

// buildStages turns a mode's check list and parallel groups into stages.
// Groups become stages first, in declared order, without their unscheduled
// members; empty groups are dropped. Every scheduled check not covered by a
// group then becomes its own stage, in list order.
func buildStages(checks []string, groups [][]string, scheduled map[string]bool) []Stage {
	var stages []Stage
	grouped := make(map[string]bool)

	for _, group := range groups {
		var members []string
		for _, name := range group {
			grouped[name] = true
			if scheduled[name] {
				members = append(members, name)
			}
		}
		if len(members) > 0 {
			stages = append(stages, Stage{Index: len(stages), Checks: members})
		}
	}

	for _, name := range checks {
		if grouped[name] || !scheduled[name] {
			continue
		}
		stages = append(stages, Stage{Index: len(stages), Checks: []string{name}})
	}
	return stages
}
