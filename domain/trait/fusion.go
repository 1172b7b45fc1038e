package trait

// Fuse combines questionnaire and essay values dimension by dimension.
// When both are present the result is w*test + (1-w)*essay; when only one is
// present it is used as is; when neither is, the dimension is nil. The
// output width is the longer of the two inputs.
func Fuse(test, essay []float64, w float64) []*float64 {
	width := max(len(test), len(essay))
	if width == 0 {
		return nil
	}

	out := make([]*float64, width)
	for i := range width {
		hasTest, hasEssay := i < len(test), i < len(essay)
		var v float64
		switch {
		case hasTest && hasEssay:
			v = w*test[i] + (1-w)*essay[i]
		case hasTest:
			v = test[i]
		case hasEssay:
			v = essay[i]
		default:
			continue
		}
		out[i] = &v
	}
	return out
}

// FuseSnapshot fuses both trait families with DefaultTestWeight and returns
// an unsaved snapshot for the user.
func FuseSnapshot(userID int64, test, essay Scores) Snapshot {
	return Snapshot{
		UserID:       userID,
		Test:         test,
		Essay:        essay,
		RIASECFused:  fixedWidth(Fuse(test.RIASEC, essay.RIASEC, DefaultTestWeight), RIASECDims),
		BigFiveFused: fixedWidth(Fuse(test.BigFive, essay.BigFive, DefaultTestWeight), BigFiveDims),
	}
}

func fixedWidth(v []*float64, width int) []*float64 {
	out := make([]*float64, width)
	copy(out, v)
	return out
}
