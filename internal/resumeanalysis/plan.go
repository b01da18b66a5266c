package resumeanalysis

// Plan is the routing decision for one document.
type Plan struct {
	Method         Method
	RequiresImages bool
}

// Decide picks the analysis method. Meaningful text always wins; otherwise
// renderable pages select the image path.
func Decide(textMeaningful, imagesAvailable bool) Plan {
	switch {
	case textMeaningful:
		return Plan{Method: MethodText}
	case imagesAvailable:
		return Plan{Method: MethodImage, RequiresImages: true}
	default:
		return Plan{Method: MethodFallback}
	}
}
