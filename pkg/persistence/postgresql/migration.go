package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				code VARCHAR(255) NOT NULL DEFAULT '',
				name VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				variables JSONB,
				is_active BOOLEAN NOT NULL DEFAULT true,
				timeout_seconds INTEGER NOT NULL DEFAULT 0,
				execution_count BIGINT NOT NULL DEFAULT 0,
				success_count BIGINT NOT NULL DEFAULT 0,
				failure_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_code ON workflows(code);
			CREATE INDEX idx_workflows_is_active ON workflows(is_active);

			CREATE TABLE workflow_executions (
				execution_id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL DEFAULT '',
				trigger_data JSONB,
				triggered_by VARCHAR(255) NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				result JSONB,
				error_message TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT '',
				node_states JSONB,
				execution_path JSONB,
				current_node_id VARCHAR(255) NOT NULL DEFAULT '',
				retry_count INTEGER NOT NULL DEFAULT 0,
				parent_execution_id VARCHAR(255) NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_workflow_executions_workflow_id ON workflow_executions(workflow_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);
			CREATE INDEX idx_workflow_executions_started_at ON workflow_executions(started_at);

			CREATE TABLE workflow_node_executions (
				id VARCHAR(255) PRIMARY KEY,
				execution_id VARCHAR(255) NOT NULL REFERENCES workflow_executions(execution_id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				node_name VARCHAR(255) NOT NULL DEFAULT '',
				node_type VARCHAR(255) NOT NULL DEFAULT '',
				sequence INTEGER NOT NULL DEFAULT 0,
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				input_data JSONB,
				output_data JSONB,
				branch VARCHAR(255) NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_workflow_node_executions_execution_id ON workflow_node_executions(execution_id, sequence);

			CREATE TABLE workflow_schedules (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				schedule_type VARCHAR(50) NOT NULL,
				schedule_config JSONB,
				is_active BOOLEAN NOT NULL DEFAULT true,
				run_count BIGINT NOT NULL DEFAULT 0,
				success_count BIGINT NOT NULL DEFAULT 0,
				failure_count BIGINT NOT NULL DEFAULT 0,
				last_run_at TIMESTAMP WITH TIME ZONE,
				next_run_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_schedules_workflow_id ON workflow_schedules(workflow_id);
			CREATE INDEX idx_workflow_schedules_is_active ON workflow_schedules(is_active);
		`,
	}
}
