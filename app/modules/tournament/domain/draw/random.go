package drawalg

// Random shuffles the teams and slices them into debates, filling slots in
// shuffle order.
type Random struct{}

func (Random) Name() string { return AlgorithmRandom }

func (Random) Generate(in *Input) ([]Pairing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Teams))
	for i, t := range in.Teams {
		ids[i] = t.ID
	}
	in.Rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	g := in.teamsPerDebate()
	out := make([]Pairing, 0, len(ids)/g)
	for start := 0; start < len(ids); start += g {
		out = append(out, slotted(in.TeamsPerSide, ids[start:start+g]))
	}
	return out, nil
}
