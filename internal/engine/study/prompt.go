package study

// Prompt templates. Placeholders are filled with fmt.Sprintf in generator.go.

const summaryPrompt = `Analyze this educational video transcript and create a comprehensive summary. Focus on key concepts, definitions, procedures, and learning objectives.

Title: "%s"
Transcript: %s

Create a detailed summary that includes:
1. Main topic and learning objectives
2. Key concepts and definitions
3. Important procedures or methods discussed
4. Practical applications mentioned
5. Key takeaways for learners`

var flashcardInstructions = map[Difficulty]string{
	Easy:   "Create basic recall and definition questions. Focus on direct facts, terminology, and simple concepts explicitly stated in the content. Questions should test memory and recognition of key terms.",
	Medium: "Create application and comprehension questions. Focus on understanding, comparing concepts, explaining processes, and applying knowledge. Questions should test deeper understanding beyond memorization.",
	Hard:   "Create analysis, synthesis, and evaluation questions. Focus on connecting multiple concepts, analyzing relationships, solving complex problems, and critical thinking. Questions should test mastery and advanced application.",
}

var flashcardExamples = map[Difficulty]string{
	Easy:   `"What is [specific term] as defined in this video?" or "According to the video, what does [concept] mean?"`,
	Medium: `"How does the video explain the relationship between [concept A] and [concept B]?" or "What steps does the video show for [process]?"`,
	Hard:   `"Why would you choose [method A] over [method B] based on the scenarios discussed?" or "How do the concepts of [A], [B], and [C] work together to solve [complex problem]?"`,
}

// flashcardPrompt args: difficulty, title, content, count, instruction,
// DIFFICULTY, example.
const flashcardPrompt = `You are an expert educator creating %[1]s-level flashcards from this educational video content.

CONTENT TO ANALYZE:
Title: "%[2]s"
Transcript: "%[3]s"

TASK: Create exactly %[4]d flashcards at %[1]s difficulty level.
%[5]s

DIFFICULTY GUIDELINES:
- EASY: Simple recall, definitions, basic facts directly stated
- MEDIUM: Understanding processes, explaining concepts, practical applications
- HARD: Analysis, synthesis, complex problem-solving, advanced reasoning

EXAMPLE QUESTION TYPES FOR %[6]s:
%[7]s

CRITICAL REQUIREMENTS:
1. Extract specific facts, concepts, and processes from the actual transcript
2. Questions must reference exact content discussed in the video
3. Use precise terminology and examples from the transcript
4. Each question tests a different concept from the content
5. Answers must be comprehensive and educational
6. NO generic or placeholder questions - only content-specific

FORMAT: Return ONLY a valid JSON array:
[{"question":"[Difficulty-appropriate question based on actual video content]","answer":"[Detailed answer with specific information from the video]","difficulty":"%[1]s"}]

FOCUS: Extract real concepts, methods, examples, and terminology actually discussed in this specific video content.`

var quizInstructions = map[Difficulty]string{
	Easy:   "Create basic multiple choice questions about definitions, facts, and terminology directly mentioned. Test simple recall and recognition.",
	Medium: "Create questions testing understanding, processes, and practical applications. Test comprehension and ability to explain concepts.",
	Hard:   "Create analytical questions requiring synthesis of multiple concepts, problem-solving, and critical evaluation. Test mastery and advanced reasoning.",
}

var quizGuidelines = map[Difficulty]string{
	Easy:   "Focus on 'what is...', 'according to the video...', 'which term describes...' type questions",
	Medium: "Focus on 'how does...', 'why is...', 'what happens when...' type questions",
	Hard:   "Focus on 'analyze the relationship...', 'compare and contrast...', 'what would happen if...' type questions",
}

// quizPrompt args: difficulty, title, content, count, instruction, DIFFICULTY, guideline.
const quizPrompt = `You are creating %[1]s-level multiple choice quiz questions from this educational video content.

CONTENT TO ANALYZE:
Title: "%[2]s"
Transcript: "%[3]s"

TASK: Create exactly %[4]d multiple choice questions at %[1]s difficulty.
%[5]s

DIFFICULTY REQUIREMENTS FOR %[6]s:
%[7]s

CONTENT EXTRACTION RULES:
1. Identify specific concepts, methods, and terminology from the transcript
2. Extract actual examples and scenarios discussed
3. Note specific procedures and steps explained
4. Find concrete facts and definitions provided
5. Locate practical applications mentioned

CRITICAL REQUIREMENTS:
1. Questions must reference specific content from the transcript above
2. Use exact terminology and examples mentioned in the video
3. Create 4 realistic options per question with proper difficulty scaling
4. Provide detailed explanations referencing actual video content
5. NO generic questions - extract real concepts from the provided content

OPTION CREATION GUIDELINES:
- Correct answer: Use exact information from the video content
- Wrong options: Create plausible but incorrect alternatives that test understanding
- Ensure wrong options are reasonable but clearly distinguishable

FORMAT: Return ONLY valid JSON array:
[{"question":"[Difficulty-appropriate question about specific video content]","options":["Correct answer from video","Plausible wrong option","Another wrong option","Third wrong option"],"correct_answer":"Correct answer from video","explanation":"Detailed explanation using specific information from the video transcript"}]

EXTRACT and USE actual content from the provided transcript - no placeholder or generic material.`
