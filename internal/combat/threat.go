package combat

// ThreatEntry is accumulated, decaying aggression toward one target.
type ThreatEntry struct {
	TargetID string  `json:"target_id"`
	Amount   float64 `json:"amount"`
}

// addThreat accumulates threat toward a target. Amounts never go negative.
func (e *Enemy) addThreat(targetID string, amount float64) {
	if targetID == "" || amount <= 0 {
		return
	}
	if e.threat == nil {
		e.threat = make(map[string]*ThreatEntry)
	}
	entry, ok := e.threat[targetID]
	if !ok {
		entry = &ThreatEntry{TargetID: targetID}
		e.threat[targetID] = entry
	}
	entry.Amount += amount
}

// Threat returns the accumulated threat toward a target.
func (e *Enemy) Threat(targetID string) float64 {
	if entry, ok := e.threat[targetID]; ok {
		return entry.Amount
	}
	return 0
}

// decayThreat reduces every entry by rate*dt and drops entries at zero.
// Decaying in two steps equals one decay with the summed dt.
func (e *Enemy) decayThreat(rate, dt float64) {
	for id, entry := range e.threat {
		entry.Amount -= rate * dt
		if entry.Amount <= 0 {
			delete(e.threat, id)
		}
	}
}

// highestThreat returns the target id with the most accumulated threat, or
// "" when the table is empty.
func (e *Enemy) highestThreat() string {
	best := ""
	bestAmount := 0.0
	for id, entry := range e.threat {
		if entry.Amount > bestAmount || (entry.Amount == bestAmount && best != "" && id < best) {
			best = id
			bestAmount = entry.Amount
		}
	}
	return best
}

// dropThreat removes one target from the table.
func (e *Enemy) dropThreat(targetID string) {
	delete(e.threat, targetID)
}
