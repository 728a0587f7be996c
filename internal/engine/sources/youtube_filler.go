package sources

import (
	"strings"
)

const (
	fillerTopicDOM = `This video covers Document Object Model (DOM) concepts, explaining how to interact with HTML elements using JavaScript. The content includes practical examples of DOM manipulation techniques, element selection methods, event handling, and dynamic content modification. Students learn how to access, modify, and create HTML elements programmatically, understanding the structure and hierarchy of web pages. The tutorial demonstrates real-world applications of DOM programming for interactive web development.`

	fillerTopicJavaScript = `This comprehensive JavaScript tutorial covers fundamental programming concepts and practical implementation techniques. The video explains variables, functions, control structures, and modern JavaScript features. Students learn through hands-on examples that demonstrate real-world coding scenarios. The content includes best practices for JavaScript development, debugging techniques, and common programming patterns used in web development.`

	fillerTopicCSS = `This CSS tutorial covers styling techniques and layout principles for web development. The video demonstrates practical approaches to creating responsive designs, understanding selectors, and implementing modern CSS features. Students learn how to structure stylesheets effectively and create visually appealing web interfaces.`

	fillerTopicGeneric = `This educational content provides structured learning with clear explanations and practical examples. The video covers key concepts through step-by-step instruction, helping students build comprehensive understanding. The tutorial includes real-world applications and demonstrates best practices in the subject area.`

	fillerClosing = ` The video content is designed to help learners progress systematically through the material with practical applications and comprehensive coverage of essential topics.`

	fillerEnhancement = `

Key Learning Objectives:
- Understanding core concepts and terminology
- Practical application through hands-on examples
- Building foundational knowledge for advanced topics
- Developing problem-solving skills in the subject area

The instructional approach emphasizes:
- Step-by-step methodology for complex topics
- Real-world examples and use cases
- Interactive learning through practical demonstrations
- Progressive skill building from basic to advanced concepts

Students will gain practical experience and theoretical understanding that can be immediately applied in professional and academic contexts. The content is structured to accommodate different learning styles and provides comprehensive coverage of essential topics in the field.`
)

// FallbackContent synthesizes study text from metadata when no captions exist.
// The topic paragraph is chosen by keywords in the lower-cased title.
func FallbackContent(title, description string) string {
	var sb strings.Builder
	sb.WriteString(`This educational video titled "` + title + `" provides comprehensive instruction on the topic. `)
	if description != "" {
		sb.WriteString("The video content includes: " + description + ". ")
	}

	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "dom"):
		sb.WriteString(fillerTopicDOM)
	case strings.Contains(lower, "javascript"):
		sb.WriteString(fillerTopicJavaScript)
	case strings.Contains(lower, "css"):
		sb.WriteString(fillerTopicCSS)
	default:
		sb.WriteString(fillerTopicGeneric)
	}
	sb.WriteString(fillerClosing)
	return sb.String()
}

// EnhancedFallbackContent is FallbackContent plus learning-objective boilerplate.
func EnhancedFallbackContent(title, description string) string {
	return FallbackContent(title, description) + fillerEnhancement
}
