package locust

import (
	"strconv"
	"text/template"
	"time"
)

// TemplateVersion is bumped whenever the layout of generated scripts changes.
const TemplateVersion = 2

const taskTemplate = `{{define "task"}}    @task()
    def {{.Name}}(self):
        url = {{.URL}}
{{- if .Headers}}

        headers = {
{{- range .Headers}}
            {{.Key}}: {{.Value}},
{{- end}}
        }
{{- end}}
{{- if .Params}}

        params = {
{{- range .Params}}
            {{.Key}}: {{.Value}},
{{- end}}
        }
{{- end}}
{{- if .HasBody}}

        data = '''{{.Body}}'''
{{- end}}

        self.response = self.client.request(
            method={{.Method}},
            url=url,
{{- if .Headers}}
            headers=headers,
{{- end}}
{{- if .Params}}
            params=params,
{{- end}}
{{- if .HasBody}}
            data=data,
{{- end}}
        )

{{end}}`

const modernTemplate = `{{define "modern"}}# -*- coding: UTF-8 -*-
# Generated by locustgen (template v{{.Version}})

from locust import HttpUser, SequentialTaskSet, task, between
from urllib.parse import quote, quote_plus


class UserBehavior(SequentialTaskSet):

{{template "task" .Task}}{{.Anchor}}


class WebsiteUser(HttpUser):
    tasks = [UserBehavior]
    wait_time = between({{.MinWait}}, {{.MaxWait}})
{{end}}`

const legacyTemplate = `{{define "legacy"}}# -*- coding: UTF-8 -*-
# Generated by locustgen (template v{{.Version}})

from locust import HttpLocust, TaskSet, task
from operator import attrgetter
from urllib.parse import quote, quote_plus
import gevent


class UserBehavior(TaskSet):
    def on_start(self):
        ''' on_start is called when a Locust start before any task is scheduled.
            Here we sort the tasks by name. '''
        ns = attrgetter('__name__')
        self.tasks = sorted(self.tasks, key=ns)
        self.next_task_nr = 0
        gevent.sleep(1)

    def get_next_task(self):
        next_task = self.tasks[self.next_task_nr]
        self.next_task_nr = (self.next_task_nr + 1) % len(self.tasks)
        return next_task

{{template "task" .Task}}{{.Anchor}}


class WebsiteUser(HttpLocust):
    task_set = UserBehavior
    min_wait = {{.MinWaitMs}}
    max_wait = {{.MaxWaitMs}}
{{end}}`

var scripts = template.Must(template.New("locust").Parse(taskTemplate + modernTemplate + legacyTemplate))

// scriptData is the input of the script templates.
type scriptData struct {
	Version   int
	Task      *Task
	Anchor    string
	MinWait   string
	MaxWait   string
	MinWaitMs int64
	MaxWaitMs int64
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
