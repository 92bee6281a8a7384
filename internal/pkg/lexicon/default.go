package lexicon

const defaultLinkPattern = `(?i)(https?://\S+|www\.\S+)`

// Default 内置词库（西班牙语 + 英语）
func Default() *Lexicon {
	return &Lexicon{
		Version: "builtin-1",
		Crisis: CrisisTiers{
			Critical: []string{
				"quiero morir", "quiero morirme", "quiero matarme", "me quiero matar",
				"me voy a matar", "suicidarme", "suicidio", "no quiero vivir",
				"quitarme la vida", "acabar con mi vida", "terminar con mi vida",
				"no vale la pena vivir", "mejor estaría muerto", "mejor estaría muerta",
				"kill myself", "want to die", "end my life", "suicide", "suicidal",
				"no reason to live",
			},
			High: []string{
				"no puedo más", "no puedo mas", "no aguanto más", "no aguanto mas",
				"hacerme daño", "lastimarme", "cortarme", "me corto", "autolesión",
				"autolesion", "sin esperanza", "no hay salida", "no tengo salida",
				"quiero desaparecer", "mejor sin mí", "mejor sin mi",
				"self harm", "self-harm", "cut myself", "hurt myself", "hopeless",
				"no way out", "want to disappear", "better off without me",
			},
			Medium: []string{
				"deprimido", "deprimida", "depresión", "ansiedad", "me siento solo",
				"me siento sola", "vacío", "vacía", "triste", "llorando",
				"no puedo dormir", "cansado de todo", "cansada de todo", "sin ganas",
				"alcohol", "drogas", "pastillas", "nadie me entiende", "no valgo nada",
				"inútil", "depressed", "anxiety", "lonely", "empty inside",
				"worthless", "can't sleep", "crying",
			},
		},
		Harassment: []string{
			`(?i)\b(idiota|imb[eé]cil|est[uú]pid[oa]|pat[eé]tic[oa]|perdedor)`,
			`(?i)\b(idiot|stupid|moron|loser|pathetic)\b`,
			`(?i)(nadie te quiere|nadie te extrañaría|deber[ií]as morirte|m[aá]tate|ojal[aá] te mueras)`,
			`(?i)(kill yourself|\bkys\b|nobody loves you|go die)`,
			`(?i)(c[aá]llate|shut up)`,
		},
		HateSpeech: []string{
			`(?i)odio a (los|las) (gays|homosexuales|inmigrantes|jud[ií]os|musulmanes|negros|mujeres|trans)`,
			`(?i)i hate (all )?(gays|immigrants|jews|muslims|blacks|women|trans people)`,
			`(?i)(los|las) (gays|inmigrantes|jud[ií]os|musulmanes|negros|trans) deber[ií]an (morir|desaparecer)`,
			`(?i)(gays|immigrants|jews|muslims|trans people) (should|must) (die|disappear)`,
			`(?i)(raza inferior|inferior race)`,
		},
		Spam: []string{
			`(?i)(compra ahora|buy now|haz clic aqu[ií]|click here|oferta (especial|limitada)|limited offer)`,
			`(?i)(gana dinero|dinero f[aá]cil|make money|earn money|easy money)`,
			`(?i)(gratis|\bfree\b|descuento|discount)`,
			defaultLinkPattern,
			`(?i)(whatsapp|telegram|dm me|escr[ií]beme al)\s*:?\s*\+?\d`,
			`(?i)(s[ií]gueme|s[ií]guenos|follow me|follow us|suscr[ií]bete|subscribe)`,
		},
		Link: defaultLinkPattern,
		OffTopicIndicators: []string{
			"comprar", "vender", "precio", "negocio", "inversión", "criptomoneda",
			"bitcoin", "elecciones", "votar", "presidente", "gobierno", "política",
			"fútbol", "futbol", "liga", "mundial", "apuestas",
			"buy", "sell", "price", "crypto", "election", "vote", "president",
			"government", "politics", "football", "soccer",
		},
		MentalHealthKeywords: []string{
			"ansiedad", "depresión", "depresion", "terapia", "psicólogo", "psicologo",
			"triste", "tristeza", "emoción", "emociones", "siento", "sentí", "sentir",
			"salud mental", "apoyo", "ayuda", "estrés", "estres", "miedo", "soledad",
			"llorar", "autoestima",
			"anxiety", "depression", "therapy", "feel", "mental health", "support",
			"stress", "lonely", "sad",
		},
	}
}
