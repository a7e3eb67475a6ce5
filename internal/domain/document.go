package domain

// Document 是持久化文件的全部内容，四个集合必须始终存在
type Document struct {
	Users      []User      `json:"users"`
	Assistants []Assistant `json:"assistants"`
	Tasks      []Task      `json:"tasks"`
	Tests      []Test      `json:"tests"`
}

func NewDocument() *Document {
	doc := &Document{}
	doc.Normalize()
	return doc
}

// Normalize 把 nil 集合替换为空集合，保证写出的 JSON 中是 [] 和 {} 而不是 null
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Assistants == nil {
		d.Assistants = []Assistant{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Tests == nil {
		d.Tests = []Test{}
	}
	for i := range d.Tasks {
		if d.Tasks[i].Groups == nil {
			d.Tasks[i].Groups = []string{}
		}
	}
	for i := range d.Tests {
		if d.Tests[i].Groups == nil {
			d.Tests[i].Groups = []string{}
		}
		if d.Tests[i].Results == nil {
			d.Tests[i].Results = map[string]any{}
		}
	}
}

func (d *Document) FindUser(identity Identity) *User {
	for i := range d.Users {
		if d.Users[i].Matches(identity) {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) FindAssistant(identity Identity) *Assistant {
	for i := range d.Assistants {
		if d.Assistants[i].Matches(identity) {
			return &d.Assistants[i]
		}
	}
	return nil
}

func (d *Document) FindTask(title string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].Title == title {
			return &d.Tasks[i]
		}
	}
	return nil
}

func (d *Document) FindTest(title string) *Test {
	for i := range d.Tests {
		if d.Tests[i].Title == title {
			return &d.Tests[i]
		}
	}
	return nil
}

func (d *Document) FindTaskByRef(ref string) *Task {
	for i := range d.Tasks {
		if RefOf(d.Tasks[i].Title) == ref {
			return &d.Tasks[i]
		}
	}
	return nil
}

func (d *Document) FindTestByRef(ref string) *Test {
	for i := range d.Tests {
		if RefOf(d.Tests[i].Title) == ref {
			return &d.Tests[i]
		}
	}
	return nil
}

func (d *Document) FindAssistantByRef(ref string) *Assistant {
	for i := range d.Assistants {
		if RefOf(HandleKey(d.Assistants[i].Name)) == ref {
			return &d.Assistants[i]
		}
	}
	return nil
}
