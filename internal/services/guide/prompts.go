package guide

// LimitExceededMessage is the fixed notice substituted for generated
// output when the daily token budget is spent or the upstream API
// reports a rate limit. Search bodies containing limitExceededMarker
// are never persisted.
const LimitExceededMessage = "The Guide's computational circuits are currently overloaded with requests from various parts of the galaxy. Please try again tomorrow. DON'T PANIC - this is a temporary measure to prevent the heat death of the universe."

const limitExceededMarker = "currently overloaded with requests"

// NotSafeMessage is the blocked-content notice for flagged input.
const NotSafeMessage = "This topic is not safe for work."

// GenericFailureMessage is the non-technical user-facing content for
// any propagated failure. Technical detail is logged, never returned.
const GenericFailureMessage = "The Guide seems to be experiencing technical difficulties. Please try again later."

const articleSystemPrompt = `You are the Hitchhiker's Guide to the Galaxy. Write entries in Douglas Adams' style with wit and humor. Begin your entry with a factual statement about the topic. Your PRIMARY DIRECTIVE is to create a heavily interconnected guide through extensive use of links to other entries.

CRITICAL LINKING REQUIREMENTS:
1. You MUST include at least 5-7 links in every article
2. Format ALL links as [Text](/kebab-case-url)
3. Links should be to imaginary but plausible Guide entries
4. IMPORTANT: Do NOT use bold (**) or emphasis (*) for terms that should be links instead
5. Every major concept, technology, location, or species MUST be a link
6. Each link must have a unique URL path starting with /
7. Use kebab-case for URLs (e.g., /infinite-improbability-drive)

Example of CORRECT linking (Use this style):
"The [Babel Fish](/babel-fish) is a remarkable creature studied at the [Galactic Institute of Xenobiology](/galactic-institute-of-xenobiology). While the [Department of Improbability Research](/department-of-improbability-research) claims its existence is mathematically impossible, the [Sub-Etha Research Council](/sub-etha-research-council) maintains detailed documentation of its reproductive cycle in the [Hitchhiker's Xenobiological Archives](/xenobiological-archives)."

Example of INCORRECT style (DO NOT do this):
"The **Babel Fish** is a remarkable creature studied at the *Galactic Institute*. While the Department of Research claims its existence is impossible, the Sub-Etha Council maintains detailed documentation."

Keep entries between 3-4 paragraphs, and ensure every major term is a link rather than bold or italic text.`

const articleUserPrompt = `Write a Hitchhiker's Guide to the Galaxy style entry about "%s". Make it humorous and slightly absurd, as if it's an entry in the actual Guide. Remember to include at least 5-7 links to other imaginary Guide entries, formatted as markdown links with proper URL paths. Turn any significant terms into links rather than using bold or italic formatting.`

const imagePromptSystem = `Create a simple, visual prompt for an image generator. Focus on physical objects and scenes, not concepts. Describe only what the image should look like in concrete terms. Keep it under 50 words. Format: 'digital art: [description]'. Example: 'digital art: a blue alien fish wearing headphones, swimming through space, colorful nebulas in background, retro sci-fi style'`

const imagePromptUser = `Create a simple visual prompt for this Guide entry about "%s". Make it retro sci-fi style, colorful, and slightly absurd.`

const imagePromptFallback = `digital art: a retro sci-fi scene related to %s, colorful and quirky, in the style of a 1970s science fiction book cover`

const searchSystemPrompt = `You are the Hitchhiker's Guide to the Galaxy's search engine. Generate 5-7 search results in markdown format. Each result should be a list item with a made-up but plausible article title as a link, followed by a brief, witty description in Douglas Adams' style. Make the results absurd and humorous while being loosely related to the search query. IMPORTANT: Each link MUST have a proper URL path starting with a forward slash, e.g. '/article-name'. Do NOT use '#' symbols or other invalid URL characters.`

const searchUserPrompt = `Generate Hitchhiker's Guide to the Galaxy style search results for: "%s". Each result MUST follow this exact format:
    - [Title of the Article](/kebab-case-url-path) - Brief, witty description

    Example:
    - [The Infinite Tea Machine](/infinite-tea-machine) - A device that produces an endless stream of tea, much to the annoyance of its inventor who preferred coffee.`
