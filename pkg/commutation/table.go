package commutation

// Row is one entry of the commutation table.
type Row struct {
	Step     Step
	Commands []Command
	Next     Step
}

// Only the outputs changing between consecutive steps are touched.
// ENTRY is the only row writing every output.
var table = [StepCount + 1]Row{
	{
		Step: StepEntry,
		Commands: []Command{
			SetMode(CH1, ModePWM),
			SetMode(CH3, ModePWM),
			Enable(CH1, OutputMain),
			Enable(CH3, OutputComplementary),
			Disable(CH1, OutputComplementary),
			Disable(CH2, OutputMain),
			Disable(CH2, OutputComplementary),
			Disable(CH3, OutputMain),
		},
		Next: Step1,
	},
	{
		Step: Step1,
		Commands: []Command{
			SetMode(CH2, ModePWM),
			Enable(CH2, OutputComplementary),
			Disable(CH3, OutputComplementary),
		},
		Next: Step2,
	},
	{
		Step: Step2,
		Commands: []Command{
			SetMode(CH3, ModePWM),
			Enable(CH3, OutputMain),
			Disable(CH1, OutputMain),
		},
		Next: Step3,
	},
	{
		Step: Step3,
		Commands: []Command{
			Disable(CH2, OutputComplementary),
			SetMode(CH1, ModePWM),
			Enable(CH1, OutputComplementary),
		},
		Next: Step4,
	},
	{
		Step: Step4,
		Commands: []Command{
			Disable(CH3, OutputMain),
			SetMode(CH2, ModePWM),
			Enable(CH2, OutputMain),
		},
		Next: Step5,
	},
	{
		Step: Step5,
		Commands: []Command{
			SetMode(CH3, ModePWM),
			Enable(CH3, OutputComplementary),
			Disable(CH1, OutputComplementary),
		},
		Next: Step6,
	},
	{
		Step: Step6,
		Commands: []Command{
			SetMode(CH1, ModePWM),
			Enable(CH1, OutputMain),
			Disable(CH2, OutputMain),
		},
		Next: Step1,
	},
}

// Table returns a copy of the commutation table indexed by Step.
func Table() []Row {
	rows := make([]Row, len(table))
	for n, row := range table {
		rows[n] = row
		rows[n].Commands = append([]Command(nil), row.Commands...)
	}
	return rows
}

// RowOf returns the row run when the sequencer is at step s.
func RowOf(s Step) Row {
	if !s.IsValid() {
		s = Step1
	}
	return table[s]
}

// Pattern returns the activation present once the rows from ENTRY
// through the row of s have run, starting from the zero Activation.
func Pattern(s Step) (a Activation) {
	for step := StepEntry; ; step = step.Next() {
		for _, cmd := range table[step].Commands {
			a.Apply(cmd)
		}
		if step == s || !s.IsValid() {
			return
		}
	}
}
