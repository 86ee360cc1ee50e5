package model

// Category is the incidence taxonomy used for the "Bug Type" column.
type Category string

const (
	CategoryScreenReader  Category = "Screen Reader"
	CategoryFocusOrder    Category = "Focus Order"
	CategoryFocusVisible  Category = "Focus Visibility"
	CategoryKeyboard      Category = "Keyboard Accessibility"
	CategoryColorContrast Category = "Color Contrast"
	CategoryStructure     Category = "Structure"
	CategoryHTMLValidator Category = "HTML Validator"
	CategoryZoomReflow    Category = "Zoom/Reflow"
	CategoryTiming        Category = "Timing"
	CategoryOther         Category = "Other"
	CategoryTestExecution Category = "Test Execution"
)

// Categories lists every category in report order.
func Categories() []Category {
	return []Category{
		CategoryScreenReader,
		CategoryFocusOrder,
		CategoryFocusVisible,
		CategoryKeyboard,
		CategoryColorContrast,
		CategoryStructure,
		CategoryHTMLValidator,
		CategoryZoomReflow,
		CategoryTiming,
		CategoryOther,
		CategoryTestExecution,
	}
}

// Valid reports whether c is part of the taxonomy.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
